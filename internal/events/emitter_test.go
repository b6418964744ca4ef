package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	received []*TaskRequestEvent
	err      error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no handlers", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewTaskRequestEvent("test_type", map[string]string{"k": "v"}, time.Now())
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("delivers to every handler", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(logger)
		first, second := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event, err := NewTaskRequestEvent("test_type", map[string]string{"k": "v"}, time.Now())
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, []*TaskRequestEvent{event}, first.received)
		assert.Equal(t, []*TaskRequestEvent{event}, second.received)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		t.Parallel()

		errA, errB := errors.New("handler a failed"), errors.New("handler b failed")
		emitter := NewInMemoryEventEmitter(nil)
		failingA := &recordingHandler{err: errA}
		ok := &recordingHandler{}
		failingB := &recordingHandler{err: errB}
		emitter.RegisterHandler(failingA)
		emitter.RegisterHandler(ok)
		emitter.RegisterHandler(failingB)

		event, err := NewTaskRequestEvent("test_type", nil, time.Now())
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		require.Error(t, err)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
		assert.Len(t, ok.received, 1)
		assert.Len(t, failingB.received, 1)
	})
}
