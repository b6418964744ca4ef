package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// BoxStore persists per-card Leitner scheduling state.
type BoxStore interface {
	// Initialize inserts the entry unless one already exists for the card.
	// It reports whether a row was created; an existing entry is left as is.
	Initialize(ctx context.Context, entry *domain.BoxEntry) (bool, error)

	// Get retrieves the entry for a card.
	// Returns ErrBoxEntryNotFound if there is none.
	Get(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error)

	// GetForUpdate retrieves the entry and locks its row until the enclosing
	// transaction ends. It must be called on a store bound with WithTx.
	GetForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error)

	// Update writes the entry's level and next review date provided the stored
	// level still equals expectedLevel. Returns ErrConflict otherwise.
	Update(ctx context.Context, entry *domain.BoxEntry, expectedLevel int) error

	// Delete removes the entry for a card. Deleting a missing entry is not an error.
	Delete(ctx context.Context, cardID uuid.UUID) error

	// NextDue returns up to limit due cards for the user: live, active cards
	// whose next review date is at or before now, excluding the given ids,
	// ordered by next review date, then box level, then card id.
	NextDue(
		ctx context.Context,
		userID uuid.UUID,
		now time.Time,
		exclude []uuid.UUID,
		limit int,
	) ([]*domain.DueCard, error)

	// ListDue returns one page of due cards in the same order as NextDue,
	// together with the total number of due cards.
	ListDue(
		ctx context.Context,
		userID uuid.UUID,
		now time.Time,
		limit, offset int,
	) ([]*domain.DueCard, int, error)

	// CountDue counts the user's schedulable cards due at or before until.
	CountDue(ctx context.Context, userID uuid.UUID, until time.Time) (int, error)

	// LevelDistribution counts the user's schedulable cards per box level.
	LevelDistribution(ctx context.Context, userID uuid.UUID) (map[int]int, error)

	// WithTx returns a new BoxStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BoxStore
}
