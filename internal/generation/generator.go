package generation

import (
	"context"

	"github.com/phrazzld/lexibox/internal/domain"
)

// DefaultMaxProposals caps the number of drafts kept from one generation run.
const DefaultMaxProposals = 15

// DefaultMaxContentRunes is how much of the source text is sent to the model.
const DefaultMaxContentRunes = 3000

// Generator proposes flashcards for a piece of source text.
type Generator interface {
	// GenerateProposals returns candidate cards for content, pitched at the
	// learner's proficiency level. Implementations return errors from
	// errors.go so callers can tell transient failures from bad output.
	GenerateProposals(
		ctx context.Context,
		content string,
		level domain.ProficiencyLevel,
	) ([]domain.ProposalDraft, error)
}
