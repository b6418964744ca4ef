package postgres

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

const proposalColumns = `id, import_session_id, user_id, front, back, context, tags, is_selected,
	created_at, expires_at, consumed_at, resolution, card_id`

// visibleProposal restricts a query on proposed_cards to rows that can still
// be listed or selected at $2.
const visibleProposal = ` AND consumed_at IS NULL AND expires_at > $2`

// PostgresProposalStore implements the store.ProposalStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProposalStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProposalStore creates a new PostgreSQL implementation of the
// ProposalStore interface. If logger is nil, a default logger will be used.
func NewPostgresProposalStore(db store.DBTX, logger *slog.Logger) *PostgresProposalStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProposalStore{
		db:     db,
		logger: logger.With(slog.String("component", "proposal_store")),
	}
}

// Ensure PostgresProposalStore implements store.ProposalStore interface
var _ store.ProposalStore = (*PostgresProposalStore)(nil)

// WithTx implements store.ProposalStore.WithTx
func (s *PostgresProposalStore) WithTx(tx *sql.Tx) store.ProposalStore {
	return &PostgresProposalStore{
		db:     tx,
		logger: s.logger,
	}
}

// CreateMultiple implements store.ProposalStore.CreateMultiple
// All proposals are validated before anything is written.
func (s *PostgresProposalStore) CreateMultiple(ctx context.Context, proposals []*domain.ProposedCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(proposals) == 0 {
		return nil
	}

	for _, p := range proposals {
		if err := p.Validate(); err != nil {
			log.Warn("proposal validation failed during create",
				slog.String("error", err.Error()),
				slog.String("proposal_id", p.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO proposed_cards (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for _, p := range proposals {
		tags, err := marshalTags(p.Tags)
		if err != nil {
			return err
		}

		var resolution sql.NullString
		if p.Resolution != nil {
			resolution = nullString(string(*p.Resolution))
		}

		_, err = s.db.ExecContext(
			ctx,
			query,
			p.ID,
			p.ImportSessionID,
			p.UserID,
			p.Front,
			p.Back,
			nullString(p.Context),
			tags,
			p.IsSelected,
			p.CreatedAt,
			p.ExpiresAt,
			nullTime(p.ConsumedAt),
			resolution,
			nullUUID(p.CardID),
		)
		if err != nil {
			log.Error("failed to create proposal",
				slog.String("error", err.Error()),
				slog.String("proposal_id", p.ID.String()),
				slog.String("session_id", p.ImportSessionID.String()))
			return MapError(err)
		}
	}

	log.Debug("proposals created",
		slog.Int("count", len(proposals)),
		slog.String("session_id", proposals[0].ImportSessionID.String()))
	return nil
}

// GetByID implements store.ProposalStore.GetByID
func (s *PostgresProposalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.ProposalStore.GetForUpdate
func (s *PostgresProposalStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresProposalStore) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.ProposedCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + proposalColumns + ` FROM proposed_cards WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	proposal, err := scanProposal(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("proposal not found", slog.String("proposal_id", id.String()))
			return nil, store.ErrProposalNotFound
		}
		log.Error("failed to get proposal",
			slog.String("error", err.Error()),
			slog.String("proposal_id", id.String()))
		return nil, MapError(err)
	}
	return proposal, nil
}

// ListVisible implements store.ProposalStore.ListVisible
func (s *PostgresProposalStore) ListVisible(
	ctx context.Context,
	sessionID uuid.UUID,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + proposalColumns + ` FROM proposed_cards WHERE import_session_id = $1` +
		visibleProposal + ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, now.UTC())
	if err != nil {
		log.Error("failed to list proposals",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	proposals := []*domain.ProposedCard{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, MapError(err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return proposals, nil
}

// SelectedIDs implements store.ProposalStore.SelectedIDs
func (s *PostgresProposalStore) SelectedIDs(
	ctx context.Context,
	sessionID uuid.UUID,
	now time.Time,
) ([]uuid.UUID, error) {
	query := `SELECT id FROM proposed_cards WHERE import_session_id = $1` +
		visibleProposal + ` AND is_selected ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, now.UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query selected proposals",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ids, nil
}

// FrontKeys implements store.ProposalStore.FrontKeys
func (s *PostgresProposalStore) FrontKeys(ctx context.Context, sessionID uuid.UUID) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT front FROM proposed_cards WHERE import_session_id = $1`, sessionID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query proposal fronts",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]struct{})
	for rows.Next() {
		var front string
		if err := rows.Scan(&front); err != nil {
			return nil, MapError(err)
		}
		keys[domain.FrontKey(front)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return keys, nil
}

// SetSelection implements store.ProposalStore.SetSelection
func (s *PostgresProposalStore) SetSelection(
	ctx context.Context,
	id uuid.UUID,
	isSelected bool,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE proposed_cards
		SET is_selected = $1
		WHERE id = $2 AND consumed_at IS NULL AND expires_at > $3
	`
	result, err := s.db.ExecContext(ctx, query, isSelected, id, now.UTC())
	if err != nil {
		log.Error("failed to set proposal selection",
			slog.String("error", err.Error()),
			slog.String("proposal_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrProposalNotFound); err != nil {
		if errors.Is(err, store.ErrProposalNotFound) {
			return s.explainMiss(ctx, id, now)
		}
		return err
	}
	return nil
}

// MarkConsumed implements store.ProposalStore.MarkConsumed
func (s *PostgresProposalStore) MarkConsumed(
	ctx context.Context,
	id uuid.UUID,
	resolution domain.ProposalResolution,
	cardID *uuid.UUID,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE proposed_cards
		SET consumed_at = $1, resolution = $2, card_id = $3
		WHERE id = $4 AND consumed_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, now.UTC(), string(resolution), nullUUID(cardID), id)
	if err != nil {
		log.Error("failed to mark proposal consumed",
			slog.String("error", err.Error()),
			slog.String("proposal_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrProposalNotFound); err != nil {
		if errors.Is(err, store.ErrProposalNotFound) {
			if _, getErr := s.GetByID(ctx, id); getErr != nil {
				return getErr
			}
			return store.ErrProposalConsumed
		}
		return err
	}

	log.Debug("proposal resolved",
		slog.String("proposal_id", id.String()),
		slog.String("resolution", string(resolution)))
	return nil
}

// explainMiss tells a consumed proposal apart from a missing or expired one
// after a guarded update matched no rows. Expiry wins: once the session is
// gone a resolved proposal is reported as not found.
func (s *PostgresProposalStore) explainMiss(ctx context.Context, id uuid.UUID, now time.Time) error {
	proposal, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if proposal.Expired(now) {
		return store.ErrProposalNotFound
	}
	if proposal.Consumed() {
		return store.ErrProposalConsumed
	}
	return store.ErrProposalNotFound
}

func scanProposal(row rowScanner) (*domain.ProposedCard, error) {
	var (
		p          domain.ProposedCard
		note       sql.NullString
		tags       []byte
		consumedAt sql.NullTime
		resolution sql.NullString
		cardID     uuid.NullUUID
	)

	err := row.Scan(
		&p.ID,
		&p.ImportSessionID,
		&p.UserID,
		&p.Front,
		&p.Back,
		&note,
		&tags,
		&p.IsSelected,
		&p.CreatedAt,
		&p.ExpiresAt,
		&consumedAt,
		&resolution,
		&cardID,
	)
	if err != nil {
		return nil, err
	}

	p.Context = note.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.ExpiresAt = p.ExpiresAt.UTC()
	p.ConsumedAt = timePtr(consumedAt)
	p.CardID = uuidPtr(cardID)
	if resolution.Valid {
		r := domain.ProposalResolution(resolution.String)
		p.Resolution = &r
	}
	if p.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return &p, nil
}
