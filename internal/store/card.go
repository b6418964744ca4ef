package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card. The card must pass domain validation.
	// Scheduling state is not created here; callers initialize the box entry
	// in the same transaction.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID, including soft-deleted cards.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Update saves the card's text fields, tags and status.
	// Returns ErrCardNotFound if the card does not exist or is soft-deleted.
	Update(ctx context.Context, card *domain.Card) error

	// SoftDelete sets deleted_at on the card. Cards are never hard-deleted so
	// review history keeps its references.
	// Returns ErrCardNotFound if the card does not exist or is already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error

	// FrontKeys returns the normalized fronts of the user's live cards, used to
	// dedupe generated proposals.
	FrontKeys(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error)

	// CountByUser returns the number of live cards owned by the user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a new CardStore instance that uses the provided transaction.
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return cardStore.WithTx(tx).Create(ctx, card)
	//   })
	WithTx(tx *sql.Tx) CardStore
}
