package gemini

import "github.com/phrazzld/lexibox/internal/domain"

// promptData represents the data passed to the prompt template
type promptData struct {
	Content          string
	ProficiencyLevel domain.ProficiencyLevel
	MaxProposals     int
}

// ResponseSchema represents the expected structure of the Gemini reply
type ResponseSchema struct {
	// Cards is the array of proposed flashcards
	Cards []CardSchema `json:"cards"`
}

// CardSchema represents a single proposed flashcard in the API response
type CardSchema struct {
	Front   string   `json:"front"`
	Back    string   `json:"back"`
	Context string   `json:"context,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}
