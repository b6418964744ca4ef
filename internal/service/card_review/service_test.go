package card_review_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/domain/leitner"
	"github.com/phrazzld/lexibox/internal/mocks"
	"github.com/phrazzld/lexibox/internal/service/card_review"
	"github.com/phrazzld/lexibox/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	sql     sqlmock.Sqlmock
	cards   *mocks.MockCardStore
	boxes   *mocks.MockBoxStore
	reviews *mocks.MockReviewStore
	service card_review.CardReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		_ = db.Close()
	})

	f := &fixture{
		sql:     sqlMock,
		cards:   &mocks.MockCardStore{},
		boxes:   &mocks.MockBoxStore{},
		reviews: &mocks.MockReviewStore{},
	}
	f.service = card_review.NewCardReviewService(
		db, f.cards, f.boxes, f.reviews,
		leitner.NewDefaultService(),
		store.RetryPolicy{MaxTransientRetries: 1, MaxConflictRetries: 1},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func newCard(t *testing.T, userID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, "le chien", "the dog", "", nil, testNow.Add(-72*time.Hour))
	require.NoError(t, err)
	return card
}

func entryAt(card *domain.Card, level int) *domain.BoxEntry {
	return &domain.BoxEntry{
		CardID:         card.ID,
		UserID:         card.UserID,
		BoxLevel:       level,
		NextReviewDate: testNow.Add(-time.Hour),
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.CreatedAt,
	}
}

func TestNewCardReviewService_PanicsOnMissingDependency(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		card_review.NewCardReviewService(nil, &mocks.MockCardStore{}, &mocks.MockBoxStore{},
			&mocks.MockReviewStore{}, leitner.NewDefaultService(), store.DefaultRetryPolicy(), nil)
	})
}

func TestSubmitReview_MovesCardBetweenBoxes(t *testing.T) {
	t.Parallel()

	scheduler := leitner.NewDefaultService()
	testCases := []struct {
		name      string
		rating    domain.Rating
		level     int
		wantLevel int
	}{
		{"good promotes", domain.RatingGood, 2, 3},
		{"again resets", domain.RatingAgain, 4, 1},
		{"easy at top stays", domain.RatingEasy, scheduler.MaxBox(), scheduler.MaxBox()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			userID := uuid.New()
			card := newCard(t, userID)
			responseTime := 2100

			f.sql.ExpectBegin()
			f.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
			f.boxes.On("GetForUpdate", mock.Anything, card.ID).Return(entryAt(card, tc.level), nil)
			f.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ReviewRecord) bool {
				return r.Rating == tc.rating &&
					r.BoxLevelBefore == tc.level &&
					r.BoxLevelAfter == tc.wantLevel &&
					*r.ResponseTimeMs == responseTime
			})).Return(nil)
			f.boxes.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.BoxEntry) bool {
				return e.BoxLevel == tc.wantLevel
			}), tc.level).Return(nil)
			f.sql.ExpectCommit()

			outcome, err := f.service.SubmitReview(context.Background(), userID, card.ID,
				card_review.SubmitReviewRequest{Rating: tc.rating, ResponseTimeMs: &responseTime}, testNow)

			require.NoError(t, err)
			assert.Equal(t, tc.level, outcome.PreviousBoxLevel)
			assert.Equal(t, tc.wantLevel, outcome.NewBoxLevel)
			assert.Equal(t, scheduler.NextReviewDate(tc.wantLevel, testNow), outcome.NextReviewDate)
			f.cards.AssertExpectations(t)
			f.boxes.AssertExpectations(t)
			f.reviews.AssertExpectations(t)
		})
	}
}

func TestSubmitReview_HiddenCardsAreNotFound(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	archived := newCard(t, ownerID)
	require.NoError(t, archived.SetStatus(domain.CardStatusArchived, testNow))
	deleted := newCard(t, ownerID)
	deletedAt := testNow.Add(-time.Minute)
	deleted.DeletedAt = &deletedAt

	testCases := []struct {
		name   string
		userID uuid.UUID
		card   *domain.Card
	}{
		{"another user's card", uuid.New(), newCard(t, ownerID)},
		{"archived card", ownerID, archived},
		{"soft-deleted card", ownerID, deleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.sql.ExpectBegin()
			f.cards.On("GetByID", mock.Anything, tc.card.ID).Return(tc.card, nil)
			f.sql.ExpectRollback()

			_, err := f.service.SubmitReview(context.Background(), tc.userID, tc.card.ID,
				card_review.SubmitReviewRequest{Rating: domain.RatingGood}, testNow)

			assert.ErrorIs(t, err, domain.ErrCardNotFound)
			assert.True(t, card_review.IsNotFound(err))
			f.boxes.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
			f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("missing card", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		id := uuid.New()
		f.sql.ExpectBegin()
		f.cards.On("GetByID", mock.Anything, id).Return(nil, store.ErrCardNotFound)
		f.sql.ExpectRollback()

		_, err := f.service.SubmitReview(context.Background(), uuid.New(), id,
			card_review.SubmitReviewRequest{Rating: domain.RatingHard}, testNow)
		assert.ErrorIs(t, err, domain.ErrCardNotFound)
	})

	t.Run("card without box entry", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		card := newCard(t, ownerID)
		f.sql.ExpectBegin()
		f.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
		f.boxes.On("GetForUpdate", mock.Anything, card.ID).Return(nil, store.ErrBoxEntryNotFound)
		f.sql.ExpectRollback()

		_, err := f.service.SubmitReview(context.Background(), ownerID, card.ID,
			card_review.SubmitReviewRequest{Rating: domain.RatingGood}, testNow)
		assert.ErrorIs(t, err, domain.ErrBoxEntryNotFound)
	})
}

func TestSubmitReview_RejectsInvalidInputWithoutTouchingTheStore(t *testing.T) {
	t.Parallel()

	negative := -5
	testCases := []struct {
		name        string
		req         card_review.SubmitReviewRequest
		expectedErr error
	}{
		{"unknown rating", card_review.SubmitReviewRequest{Rating: "perfect"}, domain.ErrInvalidRating},
		{"empty rating", card_review.SubmitReviewRequest{}, domain.ErrInvalidRating},
		{"negative response time", card_review.SubmitReviewRequest{Rating: domain.RatingGood, ResponseTimeMs: &negative}, domain.ErrInvalidResponseTime},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			_, err := f.service.SubmitReview(context.Background(), uuid.New(), uuid.New(), tc.req, testNow)

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			f.cards.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_RetriesOnceAfterConcurrentUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	card := newCard(t, userID)

	// First attempt loses the race: another review moved the card from 2 to 3.
	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()

	f.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
	f.boxes.On("GetForUpdate", mock.Anything, card.ID).Return(entryAt(card, 2), nil).Once()
	f.boxes.On("GetForUpdate", mock.Anything, card.ID).Return(entryAt(card, 3), nil).Once()
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.boxes.On("Update", mock.Anything, mock.Anything, 2).Return(store.ErrConflict).Once()
	f.boxes.On("Update", mock.Anything, mock.Anything, 3).Return(nil).Once()

	outcome, err := f.service.SubmitReview(context.Background(), userID, card.ID,
		card_review.SubmitReviewRequest{Rating: domain.RatingGood}, testNow)

	require.NoError(t, err)
	assert.Equal(t, 3, outcome.PreviousBoxLevel)
	assert.Equal(t, 4, outcome.NewBoxLevel)
	f.boxes.AssertNumberOfCalls(t, "GetForUpdate", 2)
	f.boxes.AssertExpectations(t)
}

func TestSubmitReview_GivesUpAfterSecondConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	card := newCard(t, userID)

	for i := 0; i < 2; i++ {
		f.sql.ExpectBegin()
		f.sql.ExpectRollback()
	}
	f.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
	f.boxes.On("GetForUpdate", mock.Anything, card.ID).Return(entryAt(card, 2), nil)
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.boxes.On("Update", mock.Anything, mock.Anything, 2).Return(store.ErrConflict)

	_, err := f.service.SubmitReview(context.Background(), userID, card.ID,
		card_review.SubmitReviewRequest{Rating: domain.RatingGood}, testNow)

	assert.ErrorIs(t, err, domain.ErrConflict)
	var serviceErr *card_review.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "submit_review", serviceErr.Operation)
	f.boxes.AssertNumberOfCalls(t, "Update", 2)
}

func TestNextDue(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	first := &domain.DueCard{Card: newCard(t, userID), BoxLevel: 1, NextReviewDate: testNow.Add(-2 * time.Hour)}
	second := &domain.DueCard{Card: newCard(t, userID), BoxLevel: 2, NextReviewDate: testNow.Add(-time.Hour)}

	testCases := []struct {
		name        string
		due         []*domain.DueCard
		wantCard    *domain.DueCard
		wantHasMore bool
	}{
		{"more cards waiting", []*domain.DueCard{first, second}, first, true},
		{"last card", []*domain.DueCard{second}, second, false},
		{"session complete", []*domain.DueCard{}, nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			exclude := []uuid.UUID{uuid.New()}
			f.boxes.On("NextDue", mock.Anything, userID, testNow, exclude, 2).Return(tc.due, nil)

			card, hasMore, err := f.service.NextDue(context.Background(), userID, exclude, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCard, card)
			assert.Equal(t, tc.wantHasMore, hasMore)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.boxes.On("NextDue", mock.Anything, userID, testNow, []uuid.UUID(nil), 2).
			Return(nil, errors.New("connection reset"))

		_, _, err := f.service.NextDue(context.Background(), userID, nil, testNow)
		var serviceErr *card_review.ServiceError
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, "next_due", serviceErr.Operation)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.boxes.On("NextDue", mock.Anything, userID, testNow, []uuid.UUID(nil), 2).
			Return(nil, store.ErrTransient).Once()
		f.boxes.On("NextDue", mock.Anything, userID, testNow, []uuid.UUID(nil), 2).
			Return([]*domain.DueCard{first}, nil).Once()

		card, hasMore, err := f.service.NextDue(context.Background(), userID, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, first, card)
		assert.False(t, hasMore)
	})
}

func TestListDue_Pagination(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	testCases := []struct {
		name       string
		limit      int
		offset     int
		storeLimit int
		wantErr    bool
	}{
		{"default page size", 0, 0, card_review.DefaultPageSize, false},
		{"explicit page", 10, 30, 10, false},
		{"maximum page size", card_review.MaxPageSize, 0, card_review.MaxPageSize, false},
		{"page too large", card_review.MaxPageSize + 1, 0, 0, true},
		{"negative offset", 10, -1, 0, true},
		{"negative limit", -1, 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			if !tc.wantErr {
				f.boxes.On("ListDue", mock.Anything, userID, testNow, tc.storeLimit, tc.offset).
					Return([]*domain.DueCard{}, 42, nil)
			}

			due, total, err := f.service.ListDue(context.Background(), userID, testNow, tc.limit, tc.offset)
			if tc.wantErr {
				assert.ErrorIs(t, err, card_review.ErrInvalidPage)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				f.boxes.AssertNotCalled(t, "ListDue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 42, total)
			assert.NotNil(t, due)
		})
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID, sessionID := uuid.New(), uuid.New()
	first, last := testNow.Add(-10*time.Minute), testNow
	summary := &domain.ReviewSummary{
		SessionID:     &sessionID,
		TotalReviews:  3,
		RatingCounts:  map[domain.Rating]int{domain.RatingGood: 2, domain.RatingAgain: 1},
		FirstReviewAt: &first,
		LastReviewAt:  &last,
	}
	f.reviews.On("Summarize", mock.Anything, userID, &sessionID).Return(summary, nil)

	got, err := f.service.Summary(context.Background(), userID, &sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalReviews)
	assert.Equal(t, 10*time.Minute, got.Duration())
}
