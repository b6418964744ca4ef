package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNewCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid card", func(t *testing.T) {
		t.Parallel()
		card, err := domain.NewCard(userID, "  hola ", "hello", "greeting", []string{"es", " es", ""}, fixedNow)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, card.ID)
		assert.Equal(t, userID, card.UserID)
		assert.Equal(t, "hola", card.Front)
		assert.Equal(t, "hello", card.Back)
		assert.Equal(t, []string{"es"}, card.Tags)
		assert.Equal(t, domain.CardStatusActive, card.Status)
		assert.Equal(t, fixedNow, card.CreatedAt)
		assert.Equal(t, fixedNow, card.UpdatedAt)
		assert.Nil(t, card.DeletedAt)
	})

	testCases := []struct {
		name    string
		userID  uuid.UUID
		front   string
		back    string
		context string
		wantErr error
	}{
		{"missing user", uuid.Nil, "f", "b", "", domain.ErrCardUserIDEmpty},
		{"blank front", userID, "   ", "b", "", domain.ErrCardFrontEmpty},
		{"blank back", userID, "f", "", "", domain.ErrCardBackEmpty},
		{"front too long", userID, strings.Repeat("x", domain.MaxCardTextLength+1), "b", "", domain.ErrValidation},
		{
			"context too long",
			userID,
			"f",
			"b",
			strings.Repeat("x", domain.MaxCardContextLength+1),
			domain.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card, err := domain.NewCard(tc.userID, tc.front, tc.back, tc.context, nil, fixedNow)
			assert.Nil(t, card)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCardLifecycle(t *testing.T) {
	t.Parallel()

	deletedAt := fixedNow

	testCases := []struct {
		name        string
		status      domain.CardStatus
		deletedAt   *time.Time
		want        domain.CardLifecycle
		schedulable bool
	}{
		{"active", domain.CardStatusActive, nil, domain.CardLifecycleActive, true},
		{"archived", domain.CardStatusArchived, nil, domain.CardLifecycleArchived, false},
		{"deleted wins over active", domain.CardStatusActive, &deletedAt, domain.CardLifecycleDeleted, false},
		{"deleted wins over archived", domain.CardStatusArchived, &deletedAt, domain.CardLifecycleDeleted, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card := &domain.Card{Status: tc.status, DeletedAt: tc.deletedAt}
			assert.Equal(t, tc.want, card.Lifecycle())
			assert.Equal(t, tc.schedulable, card.Schedulable())
		})
	}
}

func TestCardUpdateContent(t *testing.T) {
	t.Parallel()

	card, err := domain.NewCard(uuid.New(), "front", "back", "", nil, fixedNow)
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	err = card.UpdateContent("", "new back", "", nil, later)
	assert.ErrorIs(t, err, domain.ErrCardFrontEmpty)
	assert.Equal(t, "front", card.Front, "invalid update must leave the card unchanged")
	assert.Equal(t, fixedNow, card.UpdatedAt)

	require.NoError(t, card.UpdateContent("new front", "new back", "ctx", []string{"a", "b", "a"}, later))
	assert.Equal(t, "new front", card.Front)
	assert.Equal(t, "new back", card.Back)
	assert.Equal(t, "ctx", card.Context)
	assert.Equal(t, []string{"a", "b"}, card.Tags)
	assert.Equal(t, later, card.UpdatedAt)
}

func TestCardSetStatus(t *testing.T) {
	t.Parallel()

	card, err := domain.NewCard(uuid.New(), "front", "back", "", nil, fixedNow)
	require.NoError(t, err)

	assert.ErrorIs(t, card.SetStatus("paused", fixedNow), domain.ErrInvalidCardStatus)
	require.NoError(t, card.SetStatus(domain.CardStatusArchived, fixedNow.Add(time.Minute)))
	assert.Equal(t, domain.CardLifecycleArchived, card.Lifecycle())
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{}, domain.NormalizeTags(nil))
	assert.Equal(t, []string{"b", "a"}, domain.NormalizeTags([]string{" b", "a", "b ", "  "}))
}
