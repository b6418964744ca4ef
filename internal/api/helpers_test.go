package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/api"
	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() api.Clock {
	return func() time.Time { return testNow }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes a request through a chi router with a single route so path
// parameters resolve. A nil userID sends the request unauthenticated.
func serve(
	t *testing.T,
	method, pattern, target string,
	body any,
	userID uuid.UUID,
	handler http.HandlerFunc,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, rr).Error
}

func newCard(t *testing.T, userID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, "le chien", "the dog", "", []string{"noun"}, testNow)
	require.NoError(t, err)
	return card
}

func newSession(t *testing.T, userID uuid.UUID) *domain.ImportSession {
	t.Helper()
	s, err := domain.NewImportSession(userID, "", "Le chat dort sur le canapé.", testNow.Add(-time.Hour), domain.DefaultSessionTTL)
	require.NoError(t, err)
	return s
}
