package leitner

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// ErrNilEntry is returned when no box entry is supplied.
var ErrNilEntry = errors.New("box entry cannot be nil")

// ReviewInput carries the optional metadata captured with a review.
type ReviewInput struct {
	Rating         domain.Rating
	ResponseTimeMs *int
	SessionID      *uuid.UUID
}

// Transition is the result of applying one rating to a box entry.
type Transition struct {
	Entry  *domain.BoxEntry
	Record *domain.ReviewRecord
}

// Service defines the Leitner scheduling operations.
type Service interface {
	// NextLevel returns the box a card moves to from level after rating.
	NextLevel(level int, rating domain.Rating) (int, error)

	// NextReviewDate returns when a card in the given box is due again.
	NextReviewDate(level int, now time.Time) time.Time

	// Apply computes the new box entry and the matching review record.
	// The input entry is not modified.
	Apply(entry *domain.BoxEntry, input ReviewInput, now time.Time) (*Transition, error)

	// MaxBox is the highest box level.
	MaxBox() int
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduler with the reference interval table.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduler with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) MaxBox() int {
	return s.params.MaxBox()
}

func (s *defaultService) NextLevel(level int, rating domain.Rating) (int, error) {
	if !rating.Valid() {
		return 0, domain.ErrInvalidRating
	}
	return nextLevel(level, rating, s.params.MaxBox()), nil
}

func (s *defaultService) NextReviewDate(level int, now time.Time) time.Time {
	return now.UTC().Add(interval(level, s.params))
}

func (s *defaultService) Apply(
	entry *domain.BoxEntry,
	input ReviewInput,
	now time.Time,
) (*Transition, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}
	if input.ResponseTimeMs != nil && *input.ResponseTimeMs < 0 {
		return nil, domain.ErrInvalidResponseTime
	}

	after, err := s.NextLevel(entry.BoxLevel, input.Rating)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	updated := *entry
	updated.BoxLevel = after
	updated.NextReviewDate = s.NextReviewDate(after, now)
	updated.UpdatedAt = now

	record := &domain.ReviewRecord{
		ID:             uuid.New(),
		CardID:         entry.CardID,
		UserID:         entry.UserID,
		Rating:         input.Rating,
		BoxLevelBefore: entry.BoxLevel,
		BoxLevelAfter:  after,
		ResponseTimeMs: input.ResponseTimeMs,
		SessionID:      input.SessionID,
		CreatedAt:      now,
	}

	return &Transition{Entry: &updated, Record: record}, nil
}
