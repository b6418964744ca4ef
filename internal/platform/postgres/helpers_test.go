package postgres_test

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockDB returns a sqlmock-backed database whose expectations are checked
// when the test ends.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var cardColumnNames = []string{
	"id", "user_id", "front", "back", "context", "tags", "status", "import_session_id",
	"created_at", "updated_at", "deleted_at",
}

func cardValues(c *domain.Card) []driver.Value {
	var sessionID, deletedAt driver.Value
	if c.ImportSessionID != nil {
		sessionID = c.ImportSessionID.String()
	}
	if c.DeletedAt != nil {
		deletedAt = *c.DeletedAt
	}
	var context driver.Value
	if c.Context != "" {
		context = c.Context
	}
	tags := []byte(`[]`)
	if len(c.Tags) > 0 {
		tags = []byte(`["` + c.Tags[0] + `"]`)
	}
	return []driver.Value{
		c.ID.String(), c.UserID.String(), c.Front, c.Back, context, tags, string(c.Status),
		sessionID, c.CreatedAt, c.UpdatedAt, deletedAt,
	}
}
