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

const cardColumns = `id, user_id, front, back, context, tags, status, import_session_id,
	created_at, updated_at, deleted_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CardStore.Create
// Returns store.ErrInvalidEntity if the user or import session does not exist.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	tags, err := marshalTags(card.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
		card.Front,
		card.Back,
		nullString(card.Context),
		tags,
		string(card.Status),
		nullUUID(card.ImportSessionID),
		card.CreatedAt,
		card.UpdatedAt,
		nullTime(card.DeletedAt),
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("user_id", card.UserID.String()))
		return MapError(err)
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("user_id", card.UserID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// Update implements store.CardStore.Update
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	tags, err := marshalTags(card.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE cards
		SET front = $1, back = $2, context = $3, tags = $4, status = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Front,
		card.Back,
		nullString(card.Context),
		tags,
		string(card.Status),
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// SoftDelete implements store.CardStore.SoftDelete
func (s *PostgresCardStore) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		log.Error("failed to soft delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Info("card soft deleted", slog.String("card_id", id.String()))
	return nil
}

// FrontKeys implements store.CardStore.FrontKeys
func (s *PostgresCardStore) FrontKeys(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT front FROM cards WHERE user_id = $1 AND deleted_at IS NULL`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query card fronts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
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

// CountByUser implements store.CardStore.CountByUser
func (s *PostgresCardStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM cards WHERE user_id = $1 AND deleted_at IS NULL`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// scanCard reads a row selected with cardColumns.
func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card            domain.Card
		cardContext     sql.NullString
		tags            []byte
		status          string
		importSessionID uuid.NullUUID
		deletedAt       sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.Front,
		&card.Back,
		&cardContext,
		&tags,
		&status,
		&importSessionID,
		&card.CreatedAt,
		&card.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Context = cardContext.String
	card.Status = domain.CardStatus(status)
	card.ImportSessionID = uuidPtr(importSessionID)
	card.DeletedAt = timePtr(deletedAt)
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	if card.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}

	return &card, nil
}
