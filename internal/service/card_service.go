package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service/card_review"
	"github.com/phrazzld/lexibox/internal/store"
)

// CardContent is the user-editable part of a card.
type CardContent struct {
	Front   string   `json:"front"   validate:"required,max=2000"`
	Back    string   `json:"back"    validate:"required,max=2000"`
	Context string   `json:"context" validate:"max=4000"`
	Tags    []string `json:"tags"    validate:"max=20,dive,max=64"`
}

// CardService provides card-related operations
type CardService interface {
	// CreateCard creates an active card and puts it in box 1, due at now,
	// in a single transaction.
	CreateCard(ctx context.Context, userID uuid.UUID, content CardContent, now time.Time) (*domain.Card, error)

	// GetCard retrieves one of the user's live cards.
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)

	// UpdateCard replaces the card's text and tags. Scheduling is unchanged.
	UpdateCard(
		ctx context.Context,
		userID, cardID uuid.UUID,
		content CardContent,
		now time.Time,
	) (*domain.Card, error)

	// SetCardStatus archives or unarchives a card. Archived cards keep their
	// box entry but are skipped by the due-card selector.
	SetCardStatus(
		ctx context.Context,
		userID, cardID uuid.UUID,
		status domain.CardStatus,
		now time.Time,
	) (*domain.Card, error)

	// DeleteCard soft-deletes the card and removes its box entry. Review
	// history is kept.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID, now time.Time) error
}

// cardServiceImpl implements the CardService interface
type cardServiceImpl struct {
	db        *sql.DB
	cardStore store.CardStore
	tracker   *card_review.BoxTracker
	retry     store.RetryPolicy
	logger    *slog.Logger
}

// NewCardService creates a new CardService.
// It returns an error if any of the required dependencies are nil.
func NewCardService(
	db *sql.DB,
	cardStore store.CardStore,
	tracker *card_review.BoxTracker,
	retry store.RetryPolicy,
	logger *slog.Logger,
) (CardService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil")
	}
	if cardStore == nil {
		return nil, domain.NewValidationError("cardStore", "cannot be nil")
	}
	if tracker == nil {
		return nil, domain.NewValidationError("tracker", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		db:        db,
		cardStore: cardStore,
		tracker:   tracker,
		retry:     retry,
		logger:    logger.With(slog.String("component", "card_service")),
	}, nil
}

// CreateCard implements CardService.CreateCard
func (s *cardServiceImpl) CreateCard(
	ctx context.Context,
	userID uuid.UUID,
	content CardContent,
	now time.Time,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(userID, content.Front, content.Back, content.Context, content.Tags, now)
	if err != nil {
		return nil, NewServiceError("card", "create", "invalid card", err)
	}

	err = store.WithRetry(ctx, s.retry, "create_card", func(ctx context.Context) error {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			if err := s.cardStore.WithTx(tx).Create(ctx, card); err != nil {
				return err
			}
			_, err := s.tracker.WithTx(tx).Initialize(ctx, userID, card.ID, now)
			return err
		})
	})
	if err != nil {
		log.Error("failed to create card",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("card", "create", "failed to save card", err)
	}

	log.Debug("card created", slog.String("card_id", card.ID.String()))
	return card, nil
}

// GetCard implements CardService.GetCard
func (s *cardServiceImpl) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	var card *domain.Card
	err := store.WithRetry(ctx, s.retry, "get_card", func(ctx context.Context) error {
		var err error
		card, err = liveCard(ctx, s.cardStore, userID, cardID)
		return err
	})
	if err != nil {
		return nil, NewServiceError("card", "get", "failed to retrieve card", err)
	}
	return card, nil
}

// UpdateCard implements CardService.UpdateCard
func (s *cardServiceImpl) UpdateCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
	content CardContent,
	now time.Time,
) (*domain.Card, error) {
	return s.modify(ctx, "update", userID, cardID, func(card *domain.Card) error {
		return card.UpdateContent(content.Front, content.Back, content.Context, content.Tags, now)
	})
}

// SetCardStatus implements CardService.SetCardStatus
func (s *cardServiceImpl) SetCardStatus(
	ctx context.Context,
	userID, cardID uuid.UUID,
	status domain.CardStatus,
	now time.Time,
) (*domain.Card, error) {
	return s.modify(ctx, "set_status", userID, cardID, func(card *domain.Card) error {
		return card.SetStatus(status, now)
	})
}

func (s *cardServiceImpl) modify(
	ctx context.Context,
	operation string,
	userID, cardID uuid.UUID,
	apply func(card *domain.Card) error,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var card *domain.Card
	err := store.WithRetry(ctx, s.retry, "card_"+operation, func(ctx context.Context) error {
		var err error
		card, err = liveCard(ctx, s.cardStore, userID, cardID)
		if err != nil {
			return err
		}
		if err := apply(card); err != nil {
			return err
		}
		return s.cardStore.Update(ctx, card)
	})
	if err != nil {
		log.Debug("card modification failed",
			slog.String("operation", operation),
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("card", operation, "failed to modify card", err)
	}
	return card, nil
}

// DeleteCard implements CardService.DeleteCard
func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.WithRetry(ctx, s.retry, "delete_card", func(ctx context.Context) error {
		return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			cards := s.cardStore.WithTx(tx)
			if _, err := liveCard(ctx, cards, userID, cardID); err != nil {
				return err
			}
			if err := cards.SoftDelete(ctx, cardID, now); err != nil {
				return err
			}
			return s.tracker.WithTx(tx).Remove(ctx, userID, cardID)
		})
	})
	if err != nil {
		log.Debug("card deletion failed",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return NewServiceError("card", "delete", "failed to delete card", err)
	}

	log.Info("card deleted", slog.String("card_id", cardID.String()))
	return nil
}

// liveCard loads a card that the user owns and that is not soft-deleted.
// Anything else is reported as domain.ErrCardNotFound.
func liveCard(ctx context.Context, cards store.CardStore, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	if !card.OwnedBy(userID) || card.Lifecycle() == domain.CardLifecycleDeleted {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}
