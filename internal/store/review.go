package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// DailyReviewCount is the number of reviews a user made on one UTC day.
type DailyReviewCount struct {
	Day   time.Time
	Count int
}

// ReviewStore persists the append-only review history.
type ReviewStore interface {
	// Create appends a review record. Records are never updated or deleted.
	Create(ctx context.Context, record *domain.ReviewRecord) error

	// Summarize aggregates the user's reviews, restricted to one review
	// session when sessionID is non-nil.
	Summarize(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*domain.ReviewSummary, error)

	// DailyCounts returns per-day review counts since the given instant,
	// ordered by day descending. Days without reviews are omitted.
	DailyCounts(ctx context.Context, userID uuid.UUID, since time.Time) ([]DailyReviewCount, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
