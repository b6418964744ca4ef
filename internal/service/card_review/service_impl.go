package card_review

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/domain/leitner"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/store"
)

// cardReviewServiceImpl implements the CardReviewService interface
type cardReviewServiceImpl struct {
	db          *sql.DB
	cardStore   store.CardStore
	boxStore    store.BoxStore
	reviewStore store.ReviewStore
	scheduler   leitner.Service
	retry       store.RetryPolicy
	logger      *slog.Logger
}

// NewCardReviewService creates a new CardReviewService.
// It panics if any required dependency is nil.
func NewCardReviewService(
	db *sql.DB,
	cardStore store.CardStore,
	boxStore store.BoxStore,
	reviewStore store.ReviewStore,
	scheduler leitner.Service,
	retry store.RetryPolicy,
	logger *slog.Logger,
) CardReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if boxStore == nil {
		panic("boxStore cannot be nil")
	}
	if reviewStore == nil {
		panic("reviewStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardReviewServiceImpl{
		db:          db,
		cardStore:   cardStore,
		boxStore:    boxStore,
		reviewStore: reviewStore,
		scheduler:   scheduler,
		retry:       retry,
		logger:      logger.With(slog.String("component", "card_review_service")),
	}
}

// SubmitReview implements CardReviewService.SubmitReview
func (s *cardReviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	req SubmitReviewRequest,
	now time.Time,
) (*ReviewOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !req.Rating.Valid() {
		return nil, NewSubmitReviewError("invalid rating", domain.ErrInvalidRating)
	}
	if req.ResponseTimeMs != nil && *req.ResponseTimeMs < 0 {
		return nil, NewSubmitReviewError("invalid response time", domain.ErrInvalidResponseTime)
	}

	var outcome *ReviewOutcome
	err := store.WithRetry(ctx, s.retry, "submit_review", func(ctx context.Context) error {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			card, err := s.cardStore.WithTx(tx).GetByID(ctx, cardID)
			if err != nil {
				if store.IsNotFoundError(err) {
					return domain.ErrCardNotFound
				}
				return err
			}
			if !card.OwnedBy(userID) || !card.Schedulable() {
				return domain.ErrCardNotFound
			}

			boxes := s.boxStore.WithTx(tx)
			entry, err := boxes.GetForUpdate(ctx, cardID)
			if err != nil {
				if store.IsNotFoundError(err) {
					return domain.ErrBoxEntryNotFound
				}
				return err
			}

			transition, err := s.scheduler.Apply(entry, leitner.ReviewInput{
				Rating:         req.Rating,
				ResponseTimeMs: req.ResponseTimeMs,
				SessionID:      req.SessionID,
			}, now)
			if err != nil {
				return err
			}

			if err := s.reviewStore.WithTx(tx).Create(ctx, transition.Record); err != nil {
				return err
			}
			if err := boxes.Update(ctx, transition.Entry, entry.BoxLevel); err != nil {
				return err
			}

			outcome = &ReviewOutcome{
				CardID:           cardID,
				PreviousBoxLevel: entry.BoxLevel,
				NewBoxLevel:      transition.Entry.BoxLevel,
				NextReviewDate:   transition.Entry.NextReviewDate,
				Rating:           req.Rating,
			}
			return nil
		})
	})
	if err != nil {
		log.Error("failed to submit review",
			slog.String("card_id", cardID.String()),
			slog.String("rating", string(req.Rating)),
			slog.String("error", err.Error()))
		return nil, NewSubmitReviewError("failed to record review", err)
	}

	log.Debug("review recorded",
		slog.String("card_id", cardID.String()),
		slog.Int("box_before", outcome.PreviousBoxLevel),
		slog.Int("box_after", outcome.NewBoxLevel),
		slog.Time("next_review_date", outcome.NextReviewDate))
	return outcome, nil
}

// NextDue implements CardReviewService.NextDue
func (s *cardReviewServiceImpl) NextDue(
	ctx context.Context,
	userID uuid.UUID,
	exclude []uuid.UUID,
	now time.Time,
) (*domain.DueCard, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Fetch two so the caller learns whether the queue continues without a
	// second round trip.
	var due []*domain.DueCard
	err := store.WithRetry(ctx, s.retry, "next_due", func(ctx context.Context) error {
		var err error
		due, err = s.boxStore.NextDue(ctx, userID, now, exclude, 2)
		return err
	})
	if err != nil {
		log.Error("failed to select next due card",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, false, NewNextDueError("failed to select next card", err)
	}

	if len(due) == 0 {
		return nil, false, nil
	}
	return due[0], len(due) > 1, nil
}

// ListDue implements CardReviewService.ListDue
func (s *cardReviewServiceImpl) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit, offset int,
) ([]*domain.DueCard, int, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 0 || limit > MaxPageSize || offset < 0 {
		return nil, 0, &ServiceError{Operation: "list_due", Message: "invalid page", Err: ErrInvalidPage}
	}

	var (
		due   []*domain.DueCard
		total int
	)
	err := store.WithRetry(ctx, s.retry, "list_due", func(ctx context.Context) error {
		var err error
		due, total, err = s.boxStore.ListDue(ctx, userID, now, limit, offset)
		return err
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list due cards",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, 0, &ServiceError{Operation: "list_due", Message: "failed to list due cards", Err: err}
	}
	return due, total, nil
}

// Summary implements CardReviewService.Summary
func (s *cardReviewServiceImpl) Summary(
	ctx context.Context,
	userID uuid.UUID,
	sessionID *uuid.UUID,
) (*domain.ReviewSummary, error) {
	var summary *domain.ReviewSummary
	err := store.WithRetry(ctx, s.retry, "review_summary", func(ctx context.Context) error {
		var err error
		summary, err = s.reviewStore.Summarize(ctx, userID, sessionID)
		return err
	})
	if err != nil {
		return nil, &ServiceError{Operation: "review_summary", Message: "failed to summarize reviews", Err: err}
	}
	return summary, nil
}
