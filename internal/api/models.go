package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/service"
)

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"token"`
	ExpiresAt   string    `json:"expires_at,omitempty"`
}

// SubmitReviewRequest is the payload of POST /reviews.
type SubmitReviewRequest struct {
	CardID         uuid.UUID  `json:"card_id"          validate:"required"`
	Rating         string     `json:"rating"           validate:"required,oneof=again hard good easy"`
	ResponseTimeMs *int       `json:"response_time_ms" validate:"omitempty,min=0"`
	SessionID      *uuid.UUID `json:"session_id"`
}

// NextReviewResponse carries the next due card, or null when none is due.
type NextReviewResponse struct {
	Card    *domain.DueCard `json:"card"`
	HasMore bool            `json:"has_more"`
}

// PageMeta describes one page of a list.
type PageMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ScheduledResponse is one page of due cards.
type ScheduledResponse struct {
	Data []*domain.DueCard `json:"data"`
	Meta PageMeta          `json:"meta"`
}

// CardRequest is the payload for creating or replacing card content.
type CardRequest struct {
	Front   string   `json:"front"   validate:"required,max=2000"`
	Back    string   `json:"back"    validate:"required,max=2000"`
	Context string   `json:"context" validate:"max=4000"`
	Tags    []string `json:"tags"    validate:"max=20,dive,max=64"`
}

func (r CardRequest) content() service.CardContent {
	return service.CardContent{Front: r.Front, Back: r.Back, Context: r.Context, Tags: r.Tags}
}

// SettingsRequest updates user settings.
type SettingsRequest struct {
	ProficiencyLevel string `json:"proficiency_level" validate:"required,oneof=A1 A2 B1 B2 C1 C2"`
}

// SettingsResponse reports the stored settings.
type SettingsResponse struct {
	ProficiencyLevel domain.ProficiencyLevel `json:"proficiency_level"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// CreateImportRequest starts an import from pasted text or a URL.
type CreateImportRequest struct {
	URL     string `json:"url"     validate:"omitempty,http_url,max=2048"`
	Content string `json:"content" validate:"required_without=URL,max=200000"`
}

// ImportSessionResponse describes an import session.
type ImportSessionResponse struct {
	ID               uuid.UUID               `json:"id"`
	State            domain.SessionState     `json:"state"`
	GenerationStatus domain.GenerationStatus `json:"generation_status"`
	SourceURL        string                  `json:"source_url,omitempty"`
	WordCount        int                     `json:"word_count"`
	TotalGenerated   int                     `json:"total_generated"`
	TotalAccepted    int                     `json:"total_accepted"`
	CreatedAt        time.Time               `json:"created_at"`
	ExpiresAt        time.Time               `json:"expires_at"`
}

func sessionToResponse(s *domain.ImportSession, now time.Time) ImportSessionResponse {
	return ImportSessionResponse{
		ID:               s.ID,
		State:            s.State(now),
		GenerationStatus: s.GenerationStatus,
		SourceURL:        s.SourceURL,
		WordCount:        s.WordCount,
		TotalGenerated:   s.TotalGenerated,
		TotalAccepted:    s.TotalAccepted,
		CreatedAt:        s.CreatedAt,
		ExpiresAt:        s.ExpiresAt,
	}
}

// RecordProposalsRequest carries proposals produced outside the server.
type RecordProposalsRequest struct {
	Proposals []domain.ProposalDraft `json:"proposals" validate:"required,max=100,dive"`
}

// ProposalsResponse lists proposals.
type ProposalsResponse struct {
	Data []*domain.ProposedCard `json:"data"`
}

// SelectionRequest toggles a proposal's selection. Proposals start selected.
type SelectionRequest struct {
	IsSelected *bool `json:"is_selected" validate:"required"`
}

// ProposalIDsRequest names proposals. Accept treats an empty list as "all
// selected"; reject requires at least one id.
type ProposalIDsRequest struct {
	ProposalIDs []uuid.UUID `json:"proposal_ids" validate:"max=100"`
}

// RejectResponse reports how many proposals a reject call resolved.
type RejectResponse struct {
	RejectedCount int `json:"rejected_count"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
