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

const importSessionColumns = `id, user_id, source_url, source_content, word_count, generation_status,
	total_generated, total_accepted, created_at, updated_at, expires_at, consumed_at`

// PostgresImportSessionStore implements the store.ImportSessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresImportSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresImportSessionStore creates a new PostgreSQL implementation of the
// ImportSessionStore interface. If logger is nil, a default logger will be used.
func NewPostgresImportSessionStore(db store.DBTX, logger *slog.Logger) *PostgresImportSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImportSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "import_session_store")),
	}
}

// Ensure PostgresImportSessionStore implements store.ImportSessionStore interface
var _ store.ImportSessionStore = (*PostgresImportSessionStore)(nil)

// WithTx implements store.ImportSessionStore.WithTx
func (s *PostgresImportSessionStore) WithTx(tx *sql.Tx) store.ImportSessionStore {
	return &PostgresImportSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ImportSessionStore.Create
func (s *PostgresImportSessionStore) Create(ctx context.Context, session *domain.ImportSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("import session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO import_sessions (` + importSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		nullString(session.SourceURL),
		nullString(session.SourceContent),
		session.WordCount,
		string(session.GenerationStatus),
		session.TotalGenerated,
		session.TotalAccepted,
		session.CreatedAt,
		session.UpdatedAt,
		session.ExpiresAt,
		nullTime(session.ConsumedAt),
	)
	if err != nil {
		log.Error("failed to create import session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()),
			slog.String("user_id", session.UserID.String()))
		return MapError(err)
	}

	log.Info("import session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.Time("expires_at", session.ExpiresAt))
	return nil
}

// GetByID implements store.ImportSessionStore.GetByID
func (s *PostgresImportSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + importSessionColumns + ` FROM import_sessions WHERE id = $1`

	var (
		session    domain.ImportSession
		sourceURL  sql.NullString
		content    sql.NullString
		status     string
		consumedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&sourceURL,
		&content,
		&session.WordCount,
		&status,
		&session.TotalGenerated,
		&session.TotalAccepted,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.ExpiresAt,
		&consumedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("import session not found", slog.String("session_id", id.String()))
			return nil, store.ErrImportSessionNotFound
		}
		log.Error("failed to get import session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}

	session.SourceURL = sourceURL.String
	session.SourceContent = content.String
	session.GenerationStatus = domain.GenerationStatus(status)
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.ConsumedAt = timePtr(consumedAt)
	return &session, nil
}

// UpdateGenerationStatus implements store.ImportSessionStore.UpdateGenerationStatus
func (s *PostgresImportSessionStore) UpdateGenerationStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.GenerationStatus,
	now time.Time,
) error {
	query := `UPDATE import_sessions SET generation_status = $1, updated_at = $2 WHERE id = $3`
	return s.exec(ctx, "update generation status", id, query, string(status), now.UTC(), id)
}

// AddGenerated implements store.ImportSessionStore.AddGenerated
func (s *PostgresImportSessionStore) AddGenerated(ctx context.Context, id uuid.UUID, n int, now time.Time) error {
	if n < 0 {
		return fmt.Errorf("%w: generated count cannot be negative", store.ErrInvalidEntity)
	}
	query := `
		UPDATE import_sessions
		SET total_generated = total_generated + $1, updated_at = $2
		WHERE id = $3
	`
	return s.exec(ctx, "add generated count", id, query, n, now.UTC(), id)
}

// IncrementAccepted implements store.ImportSessionStore.IncrementAccepted
func (s *PostgresImportSessionStore) IncrementAccepted(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE import_sessions
		SET total_accepted = total_accepted + 1, updated_at = $1
		WHERE id = $2
	`
	return s.exec(ctx, "increment accepted count", id, query, now.UTC(), id)
}

// MarkConsumedIfResolved implements store.ImportSessionStore.MarkConsumedIfResolved
func (s *PostgresImportSessionStore) MarkConsumedIfResolved(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE import_sessions s
		SET consumed_at = $1, updated_at = $1
		WHERE s.id = $2
		  AND s.consumed_at IS NULL
		  AND EXISTS (SELECT 1 FROM proposed_cards p WHERE p.import_session_id = s.id)
		  AND NOT EXISTS (
			SELECT 1 FROM proposed_cards p
			WHERE p.import_session_id = s.id AND p.consumed_at IS NULL
		  )
	`
	result, err := s.db.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		log.Error("failed to mark import session consumed",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		log.Info("import session consumed", slog.String("session_id", id.String()))
	}
	return rows > 0, nil
}

// DeleteExpired implements store.ImportSessionStore.DeleteExpired
func (s *PostgresImportSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM import_sessions WHERE expires_at < $1 AND consumed_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		log.Error("failed to delete expired import sessions", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("expired import sessions deleted", slog.Int64("count", rows))
	return rows, nil
}

func (s *PostgresImportSessionStore) exec(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	query string,
	args ...any,
) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to "+operation,
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrImportSessionNotFound)
}
