package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/store"
)

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReviewStore.Create
func (s *PostgresReviewStore) Create(ctx context.Context, record *domain.ReviewRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("review validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", record.CardID.String()))
		return err
	}

	var responseTime sql.NullInt64
	if record.ResponseTimeMs != nil {
		responseTime = sql.NullInt64{Int64: int64(*record.ResponseTimeMs), Valid: true}
	}

	query := `
		INSERT INTO reviews (
			id, card_id, user_id, rating, box_level_before, box_level_after,
			response_time_ms, session_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.CardID,
		record.UserID,
		string(record.Rating),
		record.BoxLevelBefore,
		record.BoxLevelAfter,
		responseTime,
		nullUUID(record.SessionID),
		record.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create review",
			slog.String("error", err.Error()),
			slog.String("card_id", record.CardID.String()))
		return MapError(err)
	}

	log.Debug("review recorded",
		slog.String("review_id", record.ID.String()),
		slog.String("card_id", record.CardID.String()),
		slog.String("rating", string(record.Rating)),
		slog.Int("box_level_before", record.BoxLevelBefore),
		slog.Int("box_level_after", record.BoxLevelAfter))
	return nil
}

// Summarize implements store.ReviewStore.Summarize
func (s *PostgresReviewStore) Summarize(
	ctx context.Context,
	userID uuid.UUID,
	sessionID *uuid.UUID,
) (*domain.ReviewSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT rating, COUNT(*), MIN(created_at), MAX(created_at)
		FROM reviews
		WHERE user_id = $1`
	args := []any{userID}
	if sessionID != nil {
		query += ` AND session_id = $2`
		args = append(args, *sessionID)
	}
	query += ` GROUP BY rating`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to summarize reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summary := &domain.ReviewSummary{
		SessionID:    sessionID,
		RatingCounts: make(map[domain.Rating]int, len(domain.Ratings)),
	}
	for _, rating := range domain.Ratings {
		summary.RatingCounts[rating] = 0
	}

	for rows.Next() {
		var (
			rating      string
			count       int
			first, last time.Time
		)
		if err := rows.Scan(&rating, &count, &first, &last); err != nil {
			return nil, MapError(err)
		}
		summary.RatingCounts[domain.Rating(rating)] = count
		summary.TotalReviews += count

		first, last = first.UTC(), last.UTC()
		if summary.FirstReviewAt == nil || first.Before(*summary.FirstReviewAt) {
			summary.FirstReviewAt = &first
		}
		if summary.LastReviewAt == nil || last.After(*summary.LastReviewAt) {
			summary.LastReviewAt = &last
		}
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return summary, nil
}

// DailyCounts implements store.ReviewStore.DailyCounts
func (s *PostgresReviewStore) DailyCounts(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]store.DailyReviewCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM reviews
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		log.Error("failed to query daily review counts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := []store.DailyReviewCount{}
	for rows.Next() {
		var day store.DailyReviewCount
		if err := rows.Scan(&day.Day, &day.Count); err != nil {
			return nil, MapError(err)
		}
		d := day.Day
		day.Day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		counts = append(counts, day)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return counts, nil
}
