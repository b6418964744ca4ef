package card_review

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/store"
)

// BoxTracker owns the lifecycle of box entries outside of reviews: entries
// are created when a card is created or promoted and removed when it is
// deleted. Level changes go through the review engine only.
type BoxTracker struct {
	boxes  store.BoxStore
	logger *slog.Logger
}

// NewBoxTracker creates a BoxTracker over the given store.
func NewBoxTracker(boxes store.BoxStore, logger *slog.Logger) *BoxTracker {
	if boxes == nil {
		panic("boxes cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BoxTracker{
		boxes:  boxes,
		logger: logger.With(slog.String("component", "box_tracker")),
	}
}

// WithTx returns a tracker whose writes join the transaction.
func (t *BoxTracker) WithTx(tx *sql.Tx) *BoxTracker {
	return &BoxTracker{boxes: t.boxes.WithTx(tx), logger: t.logger}
}

// Initialize puts the card in box 1, due at now. It reports whether an entry
// was created; initializing an already tracked card is a no-op.
func (t *BoxTracker) Initialize(ctx context.Context, userID, cardID uuid.UUID, now time.Time) (bool, error) {
	entry, err := domain.NewBoxEntry(userID, cardID, now)
	if err != nil {
		return false, err
	}

	created, err := t.boxes.Initialize(ctx, entry)
	if err != nil {
		return false, err
	}
	if !created {
		logger.FromContextOrDefault(ctx, t.logger).Debug("box entry already exists",
			slog.String("card_id", cardID.String()))
	}
	return created, nil
}

// Get returns the card's box entry. Entries of other users are reported as
// missing.
func (t *BoxTracker) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.BoxEntry, error) {
	entry, err := t.boxes.Get(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.ErrBoxEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, domain.ErrBoxEntryNotFound
	}
	return entry, nil
}

// Remove deletes the card's box entry. Removing an untracked card succeeds.
func (t *BoxTracker) Remove(ctx context.Context, userID, cardID uuid.UUID) error {
	if _, err := t.Get(ctx, userID, cardID); err != nil {
		if errors.Is(err, domain.ErrBoxEntryNotFound) {
			return nil
		}
		return err
	}
	return t.boxes.Delete(ctx, cardID)
}
