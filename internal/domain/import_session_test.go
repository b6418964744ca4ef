package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImportSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	session, err := domain.NewImportSession(userID, "", "one two  three", fixedNow, domain.DefaultSessionTTL)
	require.NoError(t, err)
	assert.Equal(t, 3, session.WordCount)
	assert.Equal(t, fixedNow.Add(24*time.Hour), session.ExpiresAt)
	assert.Equal(t, domain.SessionStateCreated, session.State(fixedNow))

	_, err = domain.NewImportSession(userID, " ", "", fixedNow, domain.DefaultSessionTTL)
	assert.ErrorIs(t, err, domain.ErrSessionSourceEmpty)

	_, err = domain.NewImportSession(userID, "https://example.com/a", "", fixedNow, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSessionTTL)

	_, err = domain.NewImportSession(uuid.Nil, "https://example.com/a", "", fixedNow, time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestImportSessionState(t *testing.T) {
	t.Parallel()

	consumedAt := fixedNow.Add(time.Hour)

	testCases := []struct {
		name       string
		status     domain.GenerationStatus
		consumedAt *time.Time
		at         time.Time
		want       domain.SessionState
		open       bool
	}{
		{"created", domain.GenerationStatusCreated, nil, fixedNow, domain.SessionStateCreated, true},
		{"generating", domain.GenerationStatusGenerating, nil, fixedNow, domain.SessionStateGenerating, true},
		{"ready", domain.GenerationStatusReady, nil, fixedNow, domain.SessionStateReady, true},
		{"failed", domain.GenerationStatusFailed, nil, fixedNow, domain.SessionStateFailed, true},
		{"expired exactly at expiry", domain.GenerationStatusReady, nil, fixedNow.Add(24 * time.Hour), domain.SessionStateExpired, false},
		{"expired later", domain.GenerationStatusReady, nil, fixedNow.Add(48 * time.Hour), domain.SessionStateExpired, false},
		{"consumed", domain.GenerationStatusReady, &consumedAt, fixedNow.Add(2 * time.Hour), domain.SessionStateConsumed, false},
		{"consumed stays consumed after expiry", domain.GenerationStatusReady, &consumedAt, fixedNow.Add(72 * time.Hour), domain.SessionStateConsumed, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			session := &domain.ImportSession{
				GenerationStatus: tc.status,
				CreatedAt:        fixedNow,
				ExpiresAt:        fixedNow.Add(24 * time.Hour),
				ConsumedAt:       tc.consumedAt,
			}
			assert.Equal(t, tc.want, session.State(tc.at))
			assert.Equal(t, tc.open, session.Open(tc.at))
		})
	}
}

func TestImportSessionUpdateGenerationStatus(t *testing.T) {
	t.Parallel()

	session, err := domain.NewImportSession(uuid.New(), "", "content", fixedNow, time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, session.UpdateGenerationStatus("done", fixedNow), domain.ErrInvalidGeneration)
	require.NoError(t, session.UpdateGenerationStatus(domain.GenerationStatusGenerating, fixedNow))
	assert.Equal(t, domain.SessionStateGenerating, session.State(fixedNow))
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héllo", domain.TruncateRunes("héllo wörld", 5))
	assert.Equal(t, "short", domain.TruncateRunes("short", 10))
	assert.Equal(t, "keep", domain.TruncateRunes("keep", 0))
}
