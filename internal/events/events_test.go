package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequestEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	payload := map[string]string{"action": "test_action"}

	event, err := NewTaskRequestEvent("test_event", payload, now)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "test_event", event.Type)
	assert.Equal(t, now.UTC(), event.CreatedAt)
	assert.Equal(t, time.UTC, event.CreatedAt.Location())

	var decoded map[string]string
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewTaskRequestEvent_UnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewTaskRequestEvent("test_event", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestNewGenerationRequestEvent(t *testing.T) {
	t.Parallel()

	sessionID, userID := uuid.New(), uuid.New()
	event, err := NewGenerationRequestEvent(sessionID, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TypeProposalGeneration, event.Type)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(event.Payload, &raw))
	assert.Equal(t, sessionID.String(), raw["session_id"])
	assert.Equal(t, userID.String(), raw["user_id"])

	var req GenerationRequest
	require.NoError(t, event.UnmarshalPayload(&req))
	assert.Equal(t, GenerationRequest{SessionID: sessionID, UserID: userID}, req)
}
