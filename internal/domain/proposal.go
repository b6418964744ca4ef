package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProposalResolution records how a proposal left the selectable pool.
type ProposalResolution string

const (
	ProposalAccepted ProposalResolution = "accepted"
	ProposalRejected ProposalResolution = "rejected"
)

// Proposal errors
var (
	// ErrProposalNotFound is returned for missing, foreign or expired proposals.
	ErrProposalNotFound = fmt.Errorf("%w: proposal", ErrNotFound)

	// ErrProposalConsumed is returned when a proposal was already accepted or rejected.
	ErrProposalConsumed = fmt.Errorf("%w: proposal", ErrAlreadyConsumed)
)

// ProposalDraft is a candidate card as produced by a generator, before it is
// attached to a session.
type ProposalDraft struct {
	Front   string   `json:"front"   validate:"required,max=2000"`
	Back    string   `json:"back"    validate:"required,max=2000"`
	Context string   `json:"context" validate:"max=4000"`
	Tags    []string `json:"tags"    validate:"max=20,dive,max=64"`
}

// ProposedCard is a machine-generated candidate card awaiting selection.
//
// IsSelected defaults to true: proposals are opt-out, so the common case of
// accepting most suggestions needs no clicks. This is a UX policy and callers
// must not treat it as a correctness invariant.
type ProposedCard struct {
	ID              uuid.UUID           `json:"id"`
	ImportSessionID uuid.UUID           `json:"import_session_id"`
	UserID          uuid.UUID           `json:"user_id"`
	Front           string              `json:"front"`
	Back            string              `json:"back"`
	Context         string              `json:"context,omitempty"`
	Tags            []string            `json:"tags"`
	IsSelected      bool                `json:"is_selected"`
	CreatedAt       time.Time           `json:"created_at"`
	ExpiresAt       time.Time           `json:"expires_at"`
	ConsumedAt      *time.Time          `json:"consumed_at,omitempty"`
	Resolution      *ProposalResolution `json:"resolution,omitempty"`
	CardID          *uuid.UUID          `json:"card_id,omitempty"`
}

// NewProposedCard attaches a draft to an open session. The proposal inherits
// the session's expiry and starts selected.
func NewProposedCard(session *ImportSession, draft ProposalDraft, now time.Time) (*ProposedCard, error) {
	if session == nil || !session.Open(now) {
		return nil, ErrImportSessionNotFound
	}

	proposal := &ProposedCard{
		ID:              uuid.New(),
		ImportSessionID: session.ID,
		UserID:          session.UserID,
		Front:           strings.TrimSpace(draft.Front),
		Back:            strings.TrimSpace(draft.Back),
		Context:         strings.TrimSpace(draft.Context),
		Tags:            NormalizeTags(draft.Tags),
		IsSelected:      true,
		CreatedAt:       now.UTC(),
		ExpiresAt:       session.ExpiresAt,
	}

	if err := proposal.Validate(); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Validate checks if the ProposedCard has valid data.
func (p *ProposedCard) Validate() error {
	if p.ID == uuid.Nil || p.ImportSessionID == uuid.Nil || p.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if p.Front == "" {
		return ErrCardFrontEmpty
	}
	if p.Back == "" {
		return ErrCardBackEmpty
	}
	if len(p.Front) > MaxCardTextLength || len(p.Back) > MaxCardTextLength {
		return NewValidationError("front/back", fmt.Sprintf("must be at most %d characters", MaxCardTextLength))
	}
	return nil
}

// Expired reports whether the proposal's session TTL has elapsed at now.
func (p *ProposedCard) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Consumed reports whether the proposal was accepted or rejected.
func (p *ProposedCard) Consumed() bool {
	return p.ConsumedAt != nil
}

// Visible reports whether the proposal can still be listed or selected.
func (p *ProposedCard) Visible(now time.Time) bool {
	return !p.Expired(now) && !p.Consumed()
}

// OwnedBy reports whether the proposal belongs to the given user.
func (p *ProposedCard) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// ToCard copies the proposal's content into a new active card.
func (p *ProposedCard) ToCard(now time.Time) (*Card, error) {
	card, err := NewCard(p.UserID, p.Front, p.Back, p.Context, p.Tags, now)
	if err != nil {
		return nil, err
	}
	sessionID := p.ImportSessionID
	card.ImportSessionID = &sessionID
	return card, nil
}

// FrontKey is the case-insensitive key used to dedupe proposals against
// existing cards.
func FrontKey(front string) string {
	return strings.ToLower(strings.TrimSpace(front))
}
