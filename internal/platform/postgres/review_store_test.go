package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresReviewStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("appends record", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresReviewStore(db, discardLogger())
		responseTime := 1800
		record := &domain.ReviewRecord{
			ID:             uuid.New(),
			CardID:         uuid.New(),
			UserID:         uuid.New(),
			Rating:         domain.RatingGood,
			BoxLevelBefore: 2,
			BoxLevelAfter:  3,
			ResponseTimeMs: &responseTime,
			CreatedAt:      testNow,
		}

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
			WithArgs(record.ID, record.CardID, record.UserID, "good", 2, 3, int64(1800), nil, testNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), record))
	})

	t.Run("invalid rating", func(t *testing.T) {
		t.Parallel()

		db, _ := newMockDB(t)
		s := postgres.NewPostgresReviewStore(db, discardLogger())

		err := s.Create(context.Background(), &domain.ReviewRecord{
			ID:             uuid.New(),
			CardID:         uuid.New(),
			UserID:         uuid.New(),
			Rating:         "perfect",
			BoxLevelBefore: 1,
			BoxLevelAfter:  1,
			CreatedAt:      testNow,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	})
}

func TestPostgresReviewStore_Summarize(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresReviewStore(db, discardLogger())
	userID, sessionID := uuid.New(), uuid.New()
	first := testNow.Add(-10 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND session_id = $2 GROUP BY rating")).
		WithArgs(userID, sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count", "min", "max"}).
			AddRow("good", 3, first, testNow.Add(-time.Minute)).
			AddRow("again", 1, first.Add(time.Minute), testNow))

	summary, err := s.Summarize(context.Background(), userID, &sessionID)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalReviews)
	assert.Equal(t, 3, summary.RatingCounts[domain.RatingGood])
	assert.Equal(t, 1, summary.RatingCounts[domain.RatingAgain])
	assert.Equal(t, 0, summary.RatingCounts[domain.RatingEasy])
	assert.Len(t, summary.RatingCounts, len(domain.Ratings))
	assert.Equal(t, 10*time.Minute, summary.Duration())
}

func TestPostgresReviewStore_SummarizeWithoutReviews(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresReviewStore(db, discardLogger())
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 GROUP BY rating")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count", "min", "max"}))

	summary, err := s.Summarize(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalReviews)
	assert.Nil(t, summary.FirstReviewAt)
	assert.Zero(t, summary.Duration())
}

func TestPostgresReviewStore_DailyCounts(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresReviewStore(db, discardLogger())
	userID := uuid.New()
	since := testNow.AddDate(0, 0, -30)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY day ORDER BY day DESC")).
		WithArgs(userID, since).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), 5).
			AddRow(time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC), 2))

	counts, err := s.DailyCounts(context.Background(), userID, since)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 5, counts[0].Count)
	assert.True(t, counts[1].Day.Equal(time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)))
}
