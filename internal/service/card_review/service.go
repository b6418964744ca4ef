// Package card_review implements the review engine, the due-card selector
// and the box tracker on top of the Leitner scheduling policy.
package card_review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// Page size bounds for ListDue.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SubmitReviewRequest is one graded review of a card.
type SubmitReviewRequest struct {
	Rating         domain.Rating `json:"rating"`
	ResponseTimeMs *int          `json:"response_time_ms,omitempty"`
	SessionID      *uuid.UUID    `json:"session_id,omitempty"`
}

// ReviewOutcome is the scheduling result of a submitted review.
type ReviewOutcome struct {
	CardID           uuid.UUID     `json:"card_id"`
	PreviousBoxLevel int           `json:"previous_box_level"`
	NewBoxLevel      int           `json:"new_box_level"`
	NextReviewDate   time.Time     `json:"next_review_date"`
	Rating           domain.Rating `json:"rating"`
}

// CardReviewService provides the review loop: picking the next due card and
// recording the learner's rating for it.
type CardReviewService interface {
	// SubmitReview records a rating for a card and moves it between boxes.
	//
	// The card must exist, be owned by userID, be neither archived nor
	// soft-deleted, and have a box entry; otherwise a NotFound error is
	// returned. The review record and the box update are written in one
	// transaction, so a failed call leaves no partial write. A concurrent
	// review of the same card is retried once against fresh state.
	SubmitReview(
		ctx context.Context,
		userID, cardID uuid.UUID,
		req SubmitReviewRequest,
		now time.Time,
	) (*ReviewOutcome, error)

	// NextDue returns the next card due at now, skipping the excluded ids.
	// hasMore reports whether at least one other card is due. A nil card
	// means the review session is complete.
	NextDue(
		ctx context.Context,
		userID uuid.UUID,
		exclude []uuid.UUID,
		now time.Time,
	) (card *domain.DueCard, hasMore bool, err error)

	// ListDue returns one page of due cards in selection order and the total
	// number of due cards.
	ListDue(
		ctx context.Context,
		userID uuid.UUID,
		now time.Time,
		limit, offset int,
	) ([]*domain.DueCard, int, error)

	// Summary aggregates the user's reviews, or one review session's when
	// sessionID is set.
	Summary(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*domain.ReviewSummary, error)
}

// ErrInvalidPage is returned for a negative offset or a limit above MaxPageSize.
var ErrInvalidPage = fmt.Errorf("%w: invalid page", domain.ErrInvalidInput)

// ServiceError wraps errors from the card review service with additional context.
// The domain error kind stays reachable through errors.Is.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review", "next_due")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_review", Message: message, Err: err}
}

// NewNextDueError returns a new ServiceError for the next_due operation.
func NewNextDueError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "next_due", Message: message, Err: err}
}

// IsNotFound reports whether err means the card or its scheduling state is
// not visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
