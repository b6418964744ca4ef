package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/postgres"
	"github.com/phrazzld/lexibox/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCard(t *testing.T) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(uuid.New(), "la maison", "the house", "", []string{"noun"}, testNow)
	require.NoError(t, err)
	return card
}

func TestNewPostgresCardStore_PanicsOnNilDB(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { postgres.NewPostgresCardStore(nil, nil) })
}

func TestPostgresCardStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("inserts card", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())
		card := newTestCard(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cards")).
			WithArgs(card.ID, card.UserID, "la maison", "the house", nil, []byte(`["noun"]`),
				"active", nil, testNow, testNow, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), card))
	})

	t.Run("invalid card never reaches the database", func(t *testing.T) {
		t.Parallel()

		db, _ := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())
		card := newTestCard(t)
		card.Front = ""

		err := s.Create(context.Background(), card)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("foreign key violation", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cards")).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "cards_user_id_fkey"})

		err := s.Create(context.Background(), newTestCard(t))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresCardStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())
		card := newTestCard(t)
		sessionID := uuid.New()
		card.ImportSessionID = &sessionID
		card.Context = "Une maison blanche."

		mock.ExpectQuery(regexp.QuoteMeta("FROM cards WHERE id = $1")).
			WithArgs(card.ID).
			WillReturnRows(sqlmock.NewRows(cardColumnNames).AddRow(cardValues(card)...))

		got, err := s.GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, "Une maison blanche.", got.Context)
		assert.Equal(t, []string{"noun"}, got.Tags)
		assert.Equal(t, domain.CardStatusActive, got.Status)
		require.NotNil(t, got.ImportSessionID)
		assert.Equal(t, sessionID, *got.ImportSessionID)
		assert.Nil(t, got.DeletedAt)
		assert.Equal(t, domain.CardLifecycleActive, got.Lifecycle())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())

		mock.ExpectQuery(regexp.QuoteMeta("FROM cards WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(cardColumnNames))

		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("query canceled is transient", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresCardStore(db, discardLogger())

		mock.ExpectQuery(regexp.QuoteMeta("FROM cards WHERE id = $1")).
			WillReturnError(&pgconn.PgError{Code: "57014"})

		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrTransient)
	})
}

func TestPostgresCardStore_UpdateAndSoftDelete(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		rows        int64
		expectedErr error
	}{
		{"row updated", 1, nil},
		{"missing or deleted card", 0, store.ErrCardNotFound},
	}

	for _, tc := range testCases {
		t.Run("update "+tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			s := postgres.NewPostgresCardStore(db, discardLogger())
			card := newTestCard(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE cards SET front = $1")).
				WithArgs("la maison", "the house", nil, []byte(`["noun"]`), "active", testNow, card.ID).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))

			err := s.Update(context.Background(), card)
			if tc.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})

		t.Run("soft delete "+tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			s := postgres.NewPostgresCardStore(db, discardLogger())
			id := uuid.New()

			mock.ExpectExec(regexp.QuoteMeta("SET deleted_at = $1, updated_at = $1")).
				WithArgs(testNow, id).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))

			err := s.SoftDelete(context.Background(), id, testNow)
			if tc.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})
	}
}

func TestPostgresCardStore_FrontKeysAndCount(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresCardStore(db, discardLogger())
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT front FROM cards WHERE user_id = $1 AND deleted_at IS NULL")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"front"}).AddRow(" La Maison ").AddRow("le chat"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cards")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	keys, err := s.FrontKeys(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"la maison": {}, "le chat": {}}, keys)

	count, err := s.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostgresCardStore_FrontKeysQueryError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresCardStore(db, discardLogger())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT front FROM cards")).WillReturnError(errors.New("boom"))

	_, err := s.FrontKeys(context.Background(), uuid.New())
	assert.Error(t, err)
}
