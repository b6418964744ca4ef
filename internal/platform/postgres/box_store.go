package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/store"
)

const boxColumns = `card_id, user_id, box_level, next_review_date, created_at, updated_at`

// dueCardFrom joins schedulable cards to their box entries. Archived and
// soft-deleted cards never surface as due.
const dueCardFrom = `
	FROM leitner_boxes b
	JOIN cards c ON c.id = b.card_id
	WHERE b.user_id = $1
	  AND b.next_review_date <= $2
	  AND c.deleted_at IS NULL
	  AND c.status = 'active'`

// dueCardOrder is the selection order for due cards: oldest due date first,
// lower box level on ties, then card id so the order is total.
const dueCardOrder = ` ORDER BY b.next_review_date ASC, b.box_level ASC, b.card_id ASC`

// PostgresBoxStore implements the store.BoxStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBoxStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBoxStore creates a new PostgreSQL implementation of the BoxStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresBoxStore(db store.DBTX, logger *slog.Logger) *PostgresBoxStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBoxStore{
		db:     db,
		logger: logger.With(slog.String("component", "box_store")),
	}
}

// Ensure PostgresBoxStore implements store.BoxStore interface
var _ store.BoxStore = (*PostgresBoxStore)(nil)

// WithTx implements store.BoxStore.WithTx
func (s *PostgresBoxStore) WithTx(tx *sql.Tx) store.BoxStore {
	return &PostgresBoxStore{
		db:     tx,
		logger: s.logger,
	}
}

// Initialize implements store.BoxStore.Initialize
func (s *PostgresBoxStore) Initialize(ctx context.Context, entry *domain.BoxEntry) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if entry.BoxLevel < 1 {
		return false, domain.ErrInvalidBoxLevel
	}

	query := `
		INSERT INTO leitner_boxes (` + boxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (card_id) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		entry.CardID,
		entry.UserID,
		entry.BoxLevel,
		entry.NextReviewDate,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to initialize box entry",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Debug("box entry initialized",
		slog.String("card_id", entry.CardID.String()),
		slog.Bool("created", rows > 0))
	return rows > 0, nil
}

// Get implements store.BoxStore.Get
func (s *PostgresBoxStore) Get(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error) {
	return s.get(ctx, cardID, false)
}

// GetForUpdate implements store.BoxStore.GetForUpdate
func (s *PostgresBoxStore) GetForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error) {
	return s.get(ctx, cardID, true)
}

func (s *PostgresBoxStore) get(ctx context.Context, cardID uuid.UUID, lock bool) (*domain.BoxEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + boxColumns + ` FROM leitner_boxes WHERE card_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var entry domain.BoxEntry
	err := s.db.QueryRowContext(ctx, query, cardID).Scan(
		&entry.CardID,
		&entry.UserID,
		&entry.BoxLevel,
		&entry.NextReviewDate,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("box entry not found", slog.String("card_id", cardID.String()))
			return nil, store.ErrBoxEntryNotFound
		}
		log.Error("failed to get box entry",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.Bool("for_update", lock))
		return nil, MapError(err)
	}

	entry.NextReviewDate = entry.NextReviewDate.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()
	return &entry, nil
}

// Update implements store.BoxStore.Update
func (s *PostgresBoxStore) Update(ctx context.Context, entry *domain.BoxEntry, expectedLevel int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if entry.BoxLevel < 1 {
		return domain.ErrInvalidBoxLevel
	}

	query := `
		UPDATE leitner_boxes
		SET box_level = $1, next_review_date = $2, updated_at = $3
		WHERE card_id = $4 AND box_level = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		entry.BoxLevel,
		entry.NextReviewDate,
		entry.UpdatedAt,
		entry.CardID,
		expectedLevel,
	)
	if err != nil {
		log.Error("failed to update box entry",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrConflict); err != nil {
		log.Warn("box entry changed concurrently",
			slog.String("card_id", entry.CardID.String()),
			slog.Int("expected_level", expectedLevel))
		return err
	}

	return nil
}

// Delete implements store.BoxStore.Delete
func (s *PostgresBoxStore) Delete(ctx context.Context, cardID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leitner_boxes WHERE card_id = $1`, cardID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete box entry",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return MapError(err)
	}
	return nil
}

// NextDue implements store.BoxStore.NextDue
func (s *PostgresBoxStore) NextDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	exclude []uuid.UUID,
	limit int,
) ([]*domain.DueCard, error) {
	args := []any{userID, now.UTC(), limit}
	query := `SELECT ` + prefixed("c.", cardColumns) + `, b.box_level, b.next_review_date` + dueCardFrom
	if len(exclude) > 0 {
		query += ` AND b.card_id NOT IN (` + placeholders(len(args)+1, len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += dueCardOrder + ` LIMIT $3`

	return s.queryDue(ctx, userID, query, args...)
}

// ListDue implements store.BoxStore.ListDue
func (s *PostgresBoxStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit, offset int,
) ([]*domain.DueCard, int, error) {
	total, err := s.CountDue(ctx, userID, now)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + prefixed("c.", cardColumns) + `, b.box_level, b.next_review_date` +
		dueCardFrom + dueCardOrder + ` LIMIT $3 OFFSET $4`

	cards, err := s.queryDue(ctx, userID, query, userID, now.UTC(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// CountDue implements store.BoxStore.CountDue
func (s *PostgresBoxStore) CountDue(ctx context.Context, userID uuid.UUID, until time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+dueCardFrom, userID, until.UTC()).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// LevelDistribution implements store.BoxStore.LevelDistribution
func (s *PostgresBoxStore) LevelDistribution(ctx context.Context, userID uuid.UUID) (map[int]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT b.box_level, COUNT(*)
		FROM leitner_boxes b
		JOIN cards c ON c.id = b.card_id
		WHERE b.user_id = $1 AND c.deleted_at IS NULL AND c.status = 'active'
		GROUP BY b.box_level
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query box distribution",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	distribution := make(map[int]int)
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, MapError(err)
		}
		distribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return distribution, nil
}

func (s *PostgresBoxStore) queryDue(
	ctx context.Context,
	userID uuid.UUID,
	query string,
	args ...any,
) ([]*domain.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	due := []*domain.DueCard{}
	for rows.Next() {
		item, err := scanDueCard(rows)
		if err != nil {
			log.Error("failed to scan due card",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, MapError(err)
		}
		due = append(due, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return due, nil
}

// dueCardScanner lets scanCard read the card columns while the box columns
// that follow them land in the due card.
type dueCardScanner struct {
	rows  rowScanner
	extra []any
}

func (d dueCardScanner) Scan(dest ...any) error {
	return d.rows.Scan(append(dest, d.extra...)...)
}

func scanDueCard(rows rowScanner) (*domain.DueCard, error) {
	var item domain.DueCard
	card, err := scanCard(dueCardScanner{
		rows:  rows,
		extra: []any{&item.BoxLevel, &item.NextReviewDate},
	})
	if err != nil {
		return nil, err
	}
	item.Card = card
	item.NextReviewDate = item.NextReviewDate.UTC()
	return &item, nil
}
