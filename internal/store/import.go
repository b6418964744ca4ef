package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
)

// ImportSessionStore persists import sessions.
type ImportSessionStore interface {
	// Create saves a new session.
	Create(ctx context.Context, session *domain.ImportSession) error

	// GetByID retrieves a session regardless of its state.
	// Returns ErrImportSessionNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error)

	// UpdateGenerationStatus sets the generation status.
	UpdateGenerationStatus(
		ctx context.Context,
		id uuid.UUID,
		status domain.GenerationStatus,
		now time.Time,
	) error

	// AddGenerated increases total_generated by n.
	AddGenerated(ctx context.Context, id uuid.UUID, n int, now time.Time) error

	// IncrementAccepted increases total_accepted by one.
	IncrementAccepted(ctx context.Context, id uuid.UUID, now time.Time) error

	// MarkConsumedIfResolved sets consumed_at when the session has at least
	// one proposal and none of them is unresolved. It reports whether the
	// session was marked by this call.
	MarkConsumedIfResolved(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// DeleteExpired removes unconsumed sessions whose expiry is before now,
	// cascading to their proposals. It returns the number of sessions removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a new ImportSessionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ImportSessionStore
}

// ProposalStore persists proposed cards.
type ProposalStore interface {
	// CreateMultiple saves proposals. It should run inside a transaction.
	CreateMultiple(ctx context.Context, proposals []*domain.ProposedCard) error

	// GetByID retrieves a proposal regardless of its state.
	// Returns ErrProposalNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error)

	// GetForUpdate retrieves a proposal and locks its row until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error)

	// ListVisible returns the session's unresolved proposals that have not
	// expired at now, oldest first.
	ListVisible(ctx context.Context, sessionID uuid.UUID, now time.Time) ([]*domain.ProposedCard, error)

	// SelectedIDs returns the ids of the session's visible proposals that are
	// still selected.
	SelectedIDs(ctx context.Context, sessionID uuid.UUID, now time.Time) ([]uuid.UUID, error)

	// FrontKeys returns the normalized fronts of every proposal in the session.
	FrontKeys(ctx context.Context, sessionID uuid.UUID) (map[string]struct{}, error)

	// SetSelection updates is_selected on an unresolved, unexpired proposal.
	// Returns ErrProposalNotFound if the proposal is missing or expired at now,
	// and ErrProposalConsumed if it was already resolved.
	SetSelection(ctx context.Context, id uuid.UUID, isSelected bool, now time.Time) error

	// MarkConsumed resolves a proposal. cardID is set for accepted proposals.
	// Returns ErrProposalConsumed if the proposal was already resolved.
	MarkConsumed(
		ctx context.Context,
		id uuid.UUID,
		resolution domain.ProposalResolution,
		cardID *uuid.UUID,
		now time.Time,
	) error

	// WithTx returns a new ProposalStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProposalStore
}
