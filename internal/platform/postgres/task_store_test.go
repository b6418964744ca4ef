package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/platform/postgres"
	"github.com/phrazzld/lexibox/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTask struct {
	id      uuid.UUID
	payload []byte
}

func (s *stubTask) ID() uuid.UUID { return s.id }

func (s *stubTask) Type() string { return task.TaskTypeProposalGeneration }

func (s *stubTask) Payload() []byte { return s.payload }

func (s *stubTask) Status() task.TaskStatus { return task.TaskStatusPending }

func (s *stubTask) Execute(context.Context) error { return nil }

var taskColumnNames = []string{"id", "type", "payload", "status", "error_message", "created_at", "updated_at"}

func TestPostgresTaskStore_SaveTask(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, discardLogger())
	tk := &stubTask{id: uuid.New(), payload: []byte(`{"session_id":"x"}`)}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(tk.id, task.TaskTypeProposalGeneration, tk.payload, "pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveTask(context.Background(), tk))
}

func TestPostgresTaskStore_UpdateTaskStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		msg    string
		msgArg any
		rows   int64
	}{
		{"no message", "", nil, 1},
		{"failed with message", "generation failed", "generation failed", 1},
		{"missing task is ignored", "", nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			s := postgres.NewPostgresTaskStore(db, discardLogger())
			id := uuid.New()

			mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = $1, error_message = $2")).
				WithArgs("failed", tc.msgArg, sqlmock.AnyArg(), id).
				WillReturnResult(sqlmock.NewResult(0, tc.rows))

			assert.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusFailed, tc.msg))
		})
	}

	t.Run("database error", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, discardLogger())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).WillReturnError(errors.New("connection reset"))

		assert.Error(t, s.UpdateTaskStatus(context.Background(), uuid.New(), task.TaskStatusCompleted, ""))
	})
}

func TestPostgresTaskStore_GetTasks(t *testing.T) {
	t.Parallel()

	t.Run("pending", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, discardLogger())
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE status = $1 ORDER BY created_at ASC")).
			WithArgs("pending").
			WillReturnRows(sqlmock.NewRows(taskColumnNames).
				AddRow(id.String(), task.TaskTypeProposalGeneration, []byte(`{}`), "pending", nil, testNow, testNow))

		records, err := s.GetPendingTasks(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, id, records[0].ID)
		assert.Equal(t, task.TaskStatusPending, records[0].Status)
		assert.Empty(t, records[0].ErrorMessage)
	})

	t.Run("stuck processing", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, discardLogger())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND updated_at < $2 ORDER BY created_at ASC")).
			WithArgs("processing", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(taskColumnNames))

		records, err := s.GetProcessingTasks(context.Background(), 30*time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}
