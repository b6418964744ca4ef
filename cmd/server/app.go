package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/lexibox/internal/config"
	"github.com/phrazzld/lexibox/internal/domain/leitner"
	"github.com/phrazzld/lexibox/internal/events"
	"github.com/phrazzld/lexibox/internal/generation"
	"github.com/phrazzld/lexibox/internal/platform/gemini"
	"github.com/phrazzld/lexibox/internal/platform/postgres"
	"github.com/phrazzld/lexibox/internal/service"
	"github.com/phrazzld/lexibox/internal/service/auth"
	"github.com/phrazzld/lexibox/internal/service/card_review"
	"github.com/phrazzld/lexibox/internal/store"
	"github.com/phrazzld/lexibox/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	clock  func() time.Time

	jwtService        auth.JWTService
	cardReviewService card_review.CardReviewService
	cardService       service.CardService
	importService     service.ImportService
	statsService      service.StatsService
	userService       service.UserService

	// Nil when generation is not configured.
	generator  generation.Generator
	taskRunner *task.TaskRunner
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// retryPolicy builds the store retry policy from configuration.
func retryPolicy(cfg config.StoreConfig) store.RetryPolicy {
	policy := store.DefaultRetryPolicy()
	policy.MaxTransientRetries = cfg.MaxRetries
	policy.OperationTimeout = cfg.OperationTimeout
	return policy
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  utcNow,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	params, err := leitner.NewParams(leitner.ParamsConfig{IntervalsHours: cfg.Leitner.IntervalsHours})
	if err != nil {
		return nil, fmt.Errorf("invalid leitner configuration: %w", err)
	}
	scheduler := leitner.NewServiceWithParams(params)
	retry := retryPolicy(cfg.Store)

	userStore := postgres.NewPostgresUserStore(db, logger)
	cardStore := postgres.NewPostgresCardStore(db, logger)
	boxStore := postgres.NewPostgresBoxStore(db, logger)
	reviewStore := postgres.NewPostgresReviewStore(db, logger)
	sessionStore := postgres.NewPostgresImportSessionStore(db, logger)
	proposalStore := postgres.NewPostgresProposalStore(db, logger)
	tracker := card_review.NewBoxTracker(boxStore, logger)

	app.cardReviewService = card_review.NewCardReviewService(
		db, cardStore, boxStore, reviewStore, scheduler, retry, logger)

	app.cardService, err = service.NewCardService(db, cardStore, tracker, retry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}

	app.statsService, err = service.NewStatsService(
		cardStore, boxStore, reviewStore, len(params.Intervals), retry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	app.userService = service.NewUserService(
		userStore,
		auth.NewBcryptVerifier(),
		service.DevCredentials{Email: cfg.Auth.DevEmail, PasswordHash: cfg.Auth.DevPasswordHash},
		retry,
		logger,
	)
	if cfg.Auth.DevEmail == "" || cfg.Auth.DevPasswordHash == "" {
		logger.Warn("development login is disabled; set auth.dev_email and auth.dev_password_hash to enable it")
	}

	deps := service.ImportServiceDeps{
		DB:        db,
		Sessions:  sessionStore,
		Proposals: proposalStore,
		Cards:     cardStore,
		Users:     userStore,
		Tracker:   tracker,
		Retry:     retry,
	}

	// The emitter is handed to the import service before its handler exists;
	// the handler needs the import service to build tasks.
	var emitter *events.InMemoryEventEmitter
	if cfg.LLM.Enabled() {
		app.generator, err = gemini.NewGeminiGenerator(
			ctx,
			logger.With("component", "llm_generator"),
			cfg.LLM,
			cfg.Import.MaxProposals,
			cfg.Import.MaxContentChars,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		emitter = events.NewInMemoryEventEmitter(logger)
		deps.Emitter = emitter
		logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)
	} else {
		logger.Info("LLM generation disabled; proposals must be recorded directly")
	}

	app.importService, err = service.NewImportService(deps, service.ImportOptions{
		SessionTTL:        cfg.Import.SessionTTL,
		AcceptConcurrency: cfg.Import.AcceptConcurrency,
		MaxProposals:      cfg.Import.MaxProposals,
		MaxContentChars:   cfg.Import.MaxContentChars,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	if emitter != nil {
		factory := task.NewProposalGenerationTaskFactory(app.importService, app.generator, app.clock, logger)
		app.taskRunner = task.NewTaskRunner(
			postgres.NewPostgresTaskStore(db, logger),
			task.TaskRunnerConfig{
				QueueSize:    cfg.Task.QueueSize,
				WorkerCount:  cfg.Task.WorkerCount,
				StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
			},
			logger,
		)
		app.taskRunner.Register(task.TaskTypeProposalGeneration, factory.Restore)
		emitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))
	}

	return app, nil
}

// Run starts the background task runner and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if app.taskRunner != nil {
		if err := app.taskRunner.Start(); err != nil {
			return fmt.Errorf("failed to start task runner: %w", err)
		}
		app.logger.Info("task runner started",
			"worker_count", app.config.Task.WorkerCount,
			"queue_size", app.config.Task.QueueSize)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanupExpired deletes expired import sessions along with their proposals.
func (app *application) cleanupExpired(ctx context.Context) error {
	deleted, err := app.importService.CleanupExpired(ctx, app.clock())
	if err != nil {
		return fmt.Errorf("failed to clean up expired sessions: %w", err)
	}
	app.logger.Info("expired import sessions removed", "count", deleted)
	return nil
}

// cleanup releases resources held by the application. The database is
// closed by the caller that opened it.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.logger.Info("stopping task runner")
		app.taskRunner.Stop()
	}
}
