package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/api"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/mocks"
	"github.com/phrazzld/lexibox/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardHandler_CreateCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("creates card", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockCardService{
			CreateCardFn: func(_ context.Context, u uuid.UUID, content service.CardContent, now time.Time) (*domain.Card, error) {
				assert.Equal(t, service.CardContent{Front: "le chien", Back: "the dog", Tags: []string{"noun"}}, content)
				return domain.NewCard(u, content.Front, content.Back, content.Context, content.Tags, now)
			},
		}
		h := api.NewCardHandler(svc, fixedClock(), discardLogger())

		rr := serve(t, http.MethodPost, "/cards", "/cards",
			map[string]any{"front": "le chien", "back": "the dog", "tags": []string{"noun"}}, userID, h.CreateCard)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		card := decodeBody[domain.Card](t, rr)
		assert.Equal(t, userID, card.UserID)
		assert.Equal(t, domain.CardStatusActive, card.Status)
	})

	testCases := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"missing back", map[string]any{"front": "le chien"}, "Invalid back: required field"},
		{"unknown field", map[string]any{"front": "a", "back": "b", "box": 5}, "Invalid request format"},
		{"too many tags", map[string]any{"front": "a", "back": "b", "tags": make([]string, 21)}, "Invalid tags: too large"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := api.NewCardHandler(&mocks.MockCardService{}, fixedClock(), discardLogger())
			rr := serve(t, http.MethodPost, "/cards", "/cards", tc.body, userID, h.CreateCard)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.wantMsg, errorMessage(t, rr))
		})
	}
}

func TestCardHandler_GetCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	card := newCard(t, userID)

	testCases := []struct {
		name       string
		target     string
		serviceErr error
		wantStatus int
	}{
		{"own card", "/cards/" + card.ID.String(), nil, http.StatusOK},
		{"hidden card", "/cards/" + card.ID.String(), domain.ErrCardNotFound, http.StatusNotFound},
		{"malformed id", "/cards/not-a-uuid", nil, http.StatusBadRequest},
		{"unexpected failure", "/cards/" + card.ID.String(), errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mocks.MockCardService{
				GetCardFn: func(_ context.Context, _, cardID uuid.UUID) (*domain.Card, error) {
					assert.Equal(t, card.ID, cardID)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return card, nil
				},
			}
			h := api.NewCardHandler(svc, fixedClock(), discardLogger())

			rr := serve(t, http.MethodGet, "/cards/{id}", tc.target, nil, userID, h.GetCard)
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "Failed to get card", errorMessage(t, rr))
			}
		})
	}
}

func TestCardHandler_UpdateCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	card := newCard(t, userID)

	svc := &mocks.MockCardService{
		UpdateCardFn: func(_ context.Context, _, _ uuid.UUID, content service.CardContent, now time.Time) (*domain.Card, error) {
			updated := *card
			require.NoError(t, updated.UpdateContent(content.Front, content.Back, content.Context, content.Tags, now))
			return &updated, nil
		},
	}
	h := api.NewCardHandler(svc, fixedClock(), discardLogger())

	rr := serve(t, http.MethodPut, "/cards/{id}", "/cards/"+card.ID.String(),
		map[string]any{"front": "le loup", "back": "the wolf", "context": "Le loup hurle."}, userID, h.UpdateCard)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decodeBody[domain.Card](t, rr)
	assert.Equal(t, "le loup", got.Front)
	assert.Equal(t, "Le loup hurle.", got.Context)
	assert.True(t, got.UpdatedAt.Equal(testNow))
}

func TestCardHandler_ArchiveAndUnarchive(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	card := newCard(t, userID)

	testCases := []struct {
		name    string
		path    string
		handler func(h *api.CardHandler) func(http.ResponseWriter, *http.Request)
		want    domain.CardStatus
	}{
		{"archive", "/cards/{id}/archive", func(h *api.CardHandler) func(http.ResponseWriter, *http.Request) { return h.ArchiveCard }, domain.CardStatusArchived},
		{"unarchive", "/cards/{id}/unarchive", func(h *api.CardHandler) func(http.ResponseWriter, *http.Request) { return h.UnarchiveCard }, domain.CardStatusActive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got domain.CardStatus
			svc := &mocks.MockCardService{
				SetCardStatusFn: func(_ context.Context, _, _ uuid.UUID, status domain.CardStatus, _ time.Time) (*domain.Card, error) {
					got = status
					updated := *card
					updated.Status = status
					return &updated, nil
				},
			}
			h := api.NewCardHandler(svc, fixedClock(), discardLogger())

			target := "/cards/" + card.ID.String() + "/" + tc.name
			rr := serve(t, http.MethodPost, tc.path, target, nil, userID, tc.handler(h))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, decodeBody[domain.Card](t, rr).Status)
		})
	}
}

func TestCardHandler_DeleteCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()

	deleted := false
	svc := &mocks.MockCardService{
		DeleteCardFn: func(_ context.Context, u, c uuid.UUID, now time.Time) error {
			if deleted {
				return domain.ErrCardNotFound
			}
			deleted = true
			assert.Equal(t, userID, u)
			assert.Equal(t, cardID, c)
			assert.Equal(t, testNow, now)
			return nil
		},
	}
	h := api.NewCardHandler(svc, fixedClock(), discardLogger())

	rr := serve(t, http.MethodDelete, "/cards/{id}", "/cards/"+cardID.String(), nil, userID, h.DeleteCard)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = serve(t, http.MethodDelete, "/cards/{id}", "/cards/"+cardID.String(), nil, userID, h.DeleteCard)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewCardHandler_PanicsWithoutService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { api.NewCardHandler(nil, nil, nil) })
}
