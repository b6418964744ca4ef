package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/generation"
)

// Common errors
var (
	ErrNilImportService = errors.New("import service cannot be nil")
	ErrNilGenerator     = errors.New("generator cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrEmptySessionID   = errors.New("session ID cannot be empty")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
)

// ImportService is the part of the import pipeline the generation task drives.
type ImportService interface {
	// GenerationInput returns the session text and the owner's proficiency
	// level. It fails with NotFound once the session is expired or consumed.
	GenerationInput(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		now time.Time,
	) (string, domain.ProficiencyLevel, error)

	// RecordProposals stores drafts as proposals and marks the session ready.
	RecordProposals(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		drafts []domain.ProposalDraft,
		now time.Time,
	) ([]*domain.ProposedCard, error)

	// FailGeneration marks the session's generation as failed.
	FailGeneration(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error
}

// proposalGenerationPayload represents the serialized data stored in the task
type proposalGenerationPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// ProposalGenerationTask implements the Task interface for generating card
// proposals from an import session's text.
type ProposalGenerationTask struct {
	id            uuid.UUID
	sessionID     uuid.UUID
	userID        uuid.UUID
	importService ImportService
	generator     generation.Generator
	clock         func() time.Time
	logger        *slog.Logger
	status        TaskStatus
}

// NewProposalGenerationTask creates a new proposal generation task
func NewProposalGenerationTask(
	id, sessionID, userID uuid.UUID,
	importService ImportService,
	generator generation.Generator,
	clock func() time.Time,
	logger *slog.Logger,
) (*ProposalGenerationTask, error) {
	if importService == nil {
		return nil, ErrNilImportService
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if sessionID == uuid.Nil {
		return nil, ErrEmptySessionID
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	if clock == nil {
		clock = time.Now
	}

	return &ProposalGenerationTask{
		id:            id,
		sessionID:     sessionID,
		userID:        userID,
		importService: importService,
		generator:     generator,
		clock:         clock,
		logger: logger.With(
			"task_type", TaskTypeProposalGeneration,
			"session_id", sessionID,
			"task_id", id),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ProposalGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ProposalGenerationTask) Type() string {
	return TaskTypeProposalGeneration
}

// Payload returns the task data as a byte slice
func (t *ProposalGenerationTask) Payload() []byte {
	data, err := json.Marshal(proposalGenerationPayload{
		SessionID: t.sessionID,
		UserID:    t.userID,
	})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// Status returns the current task status
func (t *ProposalGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute loads the session text, asks the generator for drafts and records
// them as proposals. Generation failures move the session to failed.
func (t *ProposalGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting proposal generation task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	content, level, err := t.importService.GenerationInput(ctx, t.userID, t.sessionID, t.clock())
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to load import session", "error", err)
		return fmt.Errorf("failed to load import session: %w", err)
	}

	drafts, err := t.generator.GenerateProposals(ctx, content, level)
	if err != nil {
		t.fail(ctx)
		t.logger.Error("failed to generate proposals", "error", err)
		return fmt.Errorf("failed to generate proposals: %w", err)
	}

	t.logger.Info("proposals generated", "count", len(drafts))

	proposals, err := t.importService.RecordProposals(ctx, t.userID, t.sessionID, drafts, t.clock())
	if err != nil {
		t.fail(ctx)
		t.logger.Error("failed to record proposals", "error", err)
		return fmt.Errorf("failed to record proposals: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("proposal generation task completed",
		"drafts", len(drafts),
		"recorded", len(proposals))
	return nil
}

func (t *ProposalGenerationTask) fail(ctx context.Context) {
	t.status = TaskStatusFailed
	if err := t.importService.FailGeneration(ctx, t.userID, t.sessionID, t.clock()); err != nil {
		t.logger.Error("failed to mark generation failed", "error", err)
	}
}

// ProposalGenerationTaskFactory creates ProposalGenerationTask instances
type ProposalGenerationTaskFactory struct {
	importService ImportService
	generator     generation.Generator
	clock         func() time.Time
	logger        *slog.Logger
}

// NewProposalGenerationTaskFactory creates a new factory for ProposalGenerationTasks
func NewProposalGenerationTaskFactory(
	importService ImportService,
	generator generation.Generator,
	clock func() time.Time,
	logger *slog.Logger,
) *ProposalGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProposalGenerationTaskFactory{
		importService: importService,
		generator:     generator,
		clock:         clock,
		logger:        logger.With("component", "proposal_generation_task_factory"),
	}
}

// CreateTask creates a new ProposalGenerationTask for the given session
func (f *ProposalGenerationTaskFactory) CreateTask(sessionID, userID uuid.UUID) (Task, error) {
	return NewProposalGenerationTask(uuid.New(), sessionID, userID, f.importService, f.generator, f.clock, f.logger)
}

// Restore rebuilds a stored task. It satisfies RestoreFunc.
func (f *ProposalGenerationTaskFactory) Restore(id uuid.UUID, payload []byte) (Task, error) {
	var p proposalGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid proposal generation payload: %w", err)
	}
	return NewProposalGenerationTask(id, p.SessionID, p.UserID, f.importService, f.generator, f.clock, f.logger)
}
