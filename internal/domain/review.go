package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rating is the learner's self-assessment for one review.
type Rating string

const (
	// RatingAgain means the answer was not recalled.
	RatingAgain Rating = "again"

	// RatingHard means the answer was recalled with significant effort.
	RatingHard Rating = "hard"

	// RatingGood means the answer was recalled correctly.
	RatingGood Rating = "good"

	// RatingEasy means the answer was recalled without effort.
	RatingEasy Rating = "easy"
)

// Ratings lists every valid rating.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// ParseRating converts a raw string into a Rating.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}

// ErrInvalidResponseTime is returned when a negative response time is supplied.
var ErrInvalidResponseTime = fmt.Errorf("%w: response time cannot be negative", ErrInvalidInput)

// ReviewRecord is an immutable audit entry written for every graded review.
type ReviewRecord struct {
	ID             uuid.UUID  `json:"id"`
	CardID         uuid.UUID  `json:"card_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Rating         Rating     `json:"rating"`
	BoxLevelBefore int        `json:"box_level_before"`
	BoxLevelAfter  int        `json:"box_level_after"`
	ResponseTimeMs *int       `json:"response_time_ms,omitempty"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Validate checks field-level constraints. The before/after relationship is
// enforced by whoever computes the transition.
func (r *ReviewRecord) Validate() error {
	if r.ID == uuid.Nil || r.CardID == uuid.Nil || r.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if !r.Rating.Valid() {
		return ErrInvalidRating
	}
	if r.BoxLevelBefore < 1 || r.BoxLevelAfter < 1 {
		return ErrInvalidBoxLevel
	}
	if r.ResponseTimeMs != nil && *r.ResponseTimeMs < 0 {
		return ErrInvalidResponseTime
	}
	if r.CreatedAt.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// ReviewSummary aggregates the reviews of one review session.
type ReviewSummary struct {
	SessionID     *uuid.UUID     `json:"session_id,omitempty"`
	TotalReviews  int            `json:"total_reviews"`
	RatingCounts  map[Rating]int `json:"ratings"`
	FirstReviewAt *time.Time     `json:"first_review_at,omitempty"`
	LastReviewAt  *time.Time     `json:"last_review_at,omitempty"`
}

// Duration returns the time between the first and last review.
func (s ReviewSummary) Duration() time.Duration {
	if s.FirstReviewAt == nil || s.LastReviewAt == nil {
		return 0
	}
	return s.LastReviewAt.Sub(*s.FirstReviewAt)
}
