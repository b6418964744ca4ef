package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = fmt.Errorf("%w: card ID cannot be empty", ErrInvalidInput)

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = fmt.Errorf("%w: card user ID cannot be empty", ErrInvalidInput)

	// ErrCardFrontEmpty is returned when a card has no front text.
	ErrCardFrontEmpty = fmt.Errorf("%w: card front cannot be empty", ErrInvalidInput)

	// ErrCardBackEmpty is returned when a card has no back text.
	ErrCardBackEmpty = fmt.Errorf("%w: card back cannot be empty", ErrInvalidInput)

	// ErrInvalidCardStatus is returned when a status is neither active nor archived.
	ErrInvalidCardStatus = fmt.Errorf("%w: invalid card status", ErrInvalidInput)

	// ErrCardNotFound is returned when a card is missing, soft-deleted or not
	// owned by the caller.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)
)

// Field limits for card text.
const (
	MaxCardTextLength    = 2000
	MaxCardContextLength = 4000
	MaxCardTags          = 20
)

// CardStatus is the stored status of a card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusArchived CardStatus = "archived"
)

// Valid reports whether the status is a known value.
func (s CardStatus) Valid() bool {
	return s == CardStatusActive || s == CardStatusArchived
}

// CardLifecycle is the effective state of a card, derived from its status and
// its soft-delete marker.
type CardLifecycle string

const (
	CardLifecycleActive   CardLifecycle = "active"
	CardLifecycleArchived CardLifecycle = "archived"
	CardLifecycleDeleted  CardLifecycle = "deleted"
)

// Card is a durable flashcard owned by a single user.
type Card struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Front           string     `json:"front"`
	Back            string     `json:"back"`
	Context         string     `json:"context,omitempty"`
	Tags            []string   `json:"tags"`
	Status          CardStatus `json:"status"`
	ImportSessionID *uuid.UUID `json:"import_session_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// NewCard creates an active card for the given user.
// Front, back and context are trimmed and tags are normalized.
func NewCard(userID uuid.UUID, front, back, context string, tags []string, now time.Time) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:        uuid.New(),
		UserID:    userID,
		Front:     strings.TrimSpace(front),
		Back:      strings.TrimSpace(back),
		Context:   strings.TrimSpace(context),
		Tags:      NormalizeTags(tags),
		Status:    CardStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}
	if c.Front == "" {
		return ErrCardFrontEmpty
	}
	if c.Back == "" {
		return ErrCardBackEmpty
	}
	if len(c.Front) > MaxCardTextLength {
		return NewValidationError("front", fmt.Sprintf("must be at most %d characters", MaxCardTextLength))
	}
	if len(c.Back) > MaxCardTextLength {
		return NewValidationError("back", fmt.Sprintf("must be at most %d characters", MaxCardTextLength))
	}
	if len(c.Context) > MaxCardContextLength {
		return NewValidationError(
			"context",
			fmt.Sprintf("must be at most %d characters", MaxCardContextLength),
		)
	}
	if len(c.Tags) > MaxCardTags {
		return NewValidationError("tags", fmt.Sprintf("at most %d tags allowed", MaxCardTags))
	}
	if !c.Status.Valid() {
		return ErrInvalidCardStatus
	}
	return nil
}

// Lifecycle returns the effective state of the card. A soft-deleted card is
// Deleted whatever its stored status.
func (c *Card) Lifecycle() CardLifecycle {
	if c.DeletedAt != nil {
		return CardLifecycleDeleted
	}
	if c.Status == CardStatusArchived {
		return CardLifecycleArchived
	}
	return CardLifecycleActive
}

// Schedulable reports whether the card may take part in reviews.
func (c *Card) Schedulable() bool {
	return c.Lifecycle() == CardLifecycleActive
}

// OwnedBy reports whether the card belongs to the given user.
func (c *Card) OwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}

// UpdateContent replaces the card's text fields. The card is left unchanged
// if the new content is invalid.
func (c *Card) UpdateContent(front, back, context string, tags []string, now time.Time) error {
	updated := *c
	updated.Front = strings.TrimSpace(front)
	updated.Back = strings.TrimSpace(back)
	updated.Context = strings.TrimSpace(context)
	updated.Tags = NormalizeTags(tags)
	if err := updated.Validate(); err != nil {
		return err
	}

	updated.UpdatedAt = now.UTC()
	*c = updated
	return nil
}

// SetStatus changes the stored status.
func (c *Card) SetStatus(status CardStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidCardStatus
	}
	c.Status = status
	c.UpdatedAt = now.UTC()
	return nil
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping the
// first occurrence order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
