package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/service"
	"github.com/phrazzld/lexibox/internal/service/card_review"
)

// MockCardService implements service.CardService. Unset functions return
// zero values.
type MockCardService struct {
	CreateCardFn    func(ctx context.Context, userID uuid.UUID, content service.CardContent, now time.Time) (*domain.Card, error)
	GetCardFn       func(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)
	UpdateCardFn    func(ctx context.Context, userID, cardID uuid.UUID, content service.CardContent, now time.Time) (*domain.Card, error)
	SetCardStatusFn func(ctx context.Context, userID, cardID uuid.UUID, status domain.CardStatus, now time.Time) (*domain.Card, error)
	DeleteCardFn    func(ctx context.Context, userID, cardID uuid.UUID, now time.Time) error
}

var _ service.CardService = (*MockCardService)(nil)

// CreateCard implements service.CardService
func (m *MockCardService) CreateCard(
	ctx context.Context,
	userID uuid.UUID,
	content service.CardContent,
	now time.Time,
) (*domain.Card, error) {
	if m.CreateCardFn != nil {
		return m.CreateCardFn(ctx, userID, content, now)
	}
	return nil, nil
}

// GetCard implements service.CardService
func (m *MockCardService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	if m.GetCardFn != nil {
		return m.GetCardFn(ctx, userID, cardID)
	}
	return nil, nil
}

// UpdateCard implements service.CardService
func (m *MockCardService) UpdateCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
	content service.CardContent,
	now time.Time,
) (*domain.Card, error) {
	if m.UpdateCardFn != nil {
		return m.UpdateCardFn(ctx, userID, cardID, content, now)
	}
	return nil, nil
}

// SetCardStatus implements service.CardService
func (m *MockCardService) SetCardStatus(
	ctx context.Context,
	userID, cardID uuid.UUID,
	status domain.CardStatus,
	now time.Time,
) (*domain.Card, error) {
	if m.SetCardStatusFn != nil {
		return m.SetCardStatusFn(ctx, userID, cardID, status, now)
	}
	return nil, nil
}

// DeleteCard implements service.CardService
func (m *MockCardService) DeleteCard(ctx context.Context, userID, cardID uuid.UUID, now time.Time) error {
	if m.DeleteCardFn != nil {
		return m.DeleteCardFn(ctx, userID, cardID, now)
	}
	return nil
}

// MockCardReviewService implements card_review.CardReviewService.
type MockCardReviewService struct {
	SubmitReviewFn func(ctx context.Context, userID, cardID uuid.UUID, req card_review.SubmitReviewRequest, now time.Time) (*card_review.ReviewOutcome, error)
	NextDueFn      func(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID, now time.Time) (*domain.DueCard, bool, error)
	ListDueFn      func(ctx context.Context, userID uuid.UUID, now time.Time, limit, offset int) ([]*domain.DueCard, int, error)
	SummaryFn      func(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) (*domain.ReviewSummary, error)
}

var _ card_review.CardReviewService = (*MockCardReviewService)(nil)

// SubmitReview implements card_review.CardReviewService
func (m *MockCardReviewService) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	req card_review.SubmitReviewRequest,
	now time.Time,
) (*card_review.ReviewOutcome, error) {
	if m.SubmitReviewFn != nil {
		return m.SubmitReviewFn(ctx, userID, cardID, req, now)
	}
	return nil, nil
}

// NextDue implements card_review.CardReviewService
func (m *MockCardReviewService) NextDue(
	ctx context.Context,
	userID uuid.UUID,
	exclude []uuid.UUID,
	now time.Time,
) (*domain.DueCard, bool, error) {
	if m.NextDueFn != nil {
		return m.NextDueFn(ctx, userID, exclude, now)
	}
	return nil, false, nil
}

// ListDue implements card_review.CardReviewService
func (m *MockCardReviewService) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit, offset int,
) ([]*domain.DueCard, int, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, userID, now, limit, offset)
	}
	return []*domain.DueCard{}, 0, nil
}

// Summary implements card_review.CardReviewService
func (m *MockCardReviewService) Summary(
	ctx context.Context,
	userID uuid.UUID,
	sessionID *uuid.UUID,
) (*domain.ReviewSummary, error) {
	if m.SummaryFn != nil {
		return m.SummaryFn(ctx, userID, sessionID)
	}
	return &domain.ReviewSummary{SessionID: sessionID, RatingCounts: map[domain.Rating]int{}}, nil
}

// MockImportService implements service.ImportService.
type MockImportService struct {
	CreateSessionFn     func(ctx context.Context, userID uuid.UUID, src service.ImportSource, now time.Time) (*domain.ImportSession, error)
	GetSessionFn        func(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.ImportSession, error)
	RecordProposalsFn   func(ctx context.Context, userID, sessionID uuid.UUID, drafts []domain.ProposalDraft, now time.Time) ([]*domain.ProposedCard, error)
	ListProposalsFn     func(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) ([]*domain.ProposedCard, error)
	SetSelectionFn      func(ctx context.Context, userID, proposalID uuid.UUID, isSelected bool, now time.Time) (*domain.ProposedCard, error)
	AcceptSelectedFn    func(ctx context.Context, userID, sessionID uuid.UUID, proposalIDs []uuid.UUID, now time.Time) (*service.AcceptResult, error)
	RejectProposalsFn   func(ctx context.Context, userID, sessionID uuid.UUID, proposalIDs []uuid.UUID, now time.Time) (int, error)
	CleanupExpiredFn    func(ctx context.Context, now time.Time) (int64, error)
	RequestGenerationFn func(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.ImportSession, error)
	GenerationInputFn   func(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (string, domain.ProficiencyLevel, error)
	FailGenerationFn    func(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error
}

var _ service.ImportService = (*MockImportService)(nil)

// CreateSession implements service.ImportService
func (m *MockImportService) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	src service.ImportSource,
	now time.Time,
) (*domain.ImportSession, error) {
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, userID, src, now)
	}
	return nil, nil
}

// GetSession implements service.ImportService
func (m *MockImportService) GetSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	if m.GetSessionFn != nil {
		return m.GetSessionFn(ctx, userID, sessionID, now)
	}
	return nil, nil
}

// RecordProposals implements service.ImportService
func (m *MockImportService) RecordProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	drafts []domain.ProposalDraft,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	if m.RecordProposalsFn != nil {
		return m.RecordProposalsFn(ctx, userID, sessionID, drafts, now)
	}
	return []*domain.ProposedCard{}, nil
}

// ListProposals implements service.ImportService
func (m *MockImportService) ListProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	if m.ListProposalsFn != nil {
		return m.ListProposalsFn(ctx, userID, sessionID, now)
	}
	return []*domain.ProposedCard{}, nil
}

// SetSelection implements service.ImportService
func (m *MockImportService) SetSelection(
	ctx context.Context,
	userID, proposalID uuid.UUID,
	isSelected bool,
	now time.Time,
) (*domain.ProposedCard, error) {
	if m.SetSelectionFn != nil {
		return m.SetSelectionFn(ctx, userID, proposalID, isSelected, now)
	}
	return nil, nil
}

// AcceptSelected implements service.ImportService
func (m *MockImportService) AcceptSelected(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	proposalIDs []uuid.UUID,
	now time.Time,
) (*service.AcceptResult, error) {
	if m.AcceptSelectedFn != nil {
		return m.AcceptSelectedFn(ctx, userID, sessionID, proposalIDs, now)
	}
	return &service.AcceptResult{CardIDs: []uuid.UUID{}, Failures: []service.AcceptFailure{}}, nil
}

// RejectProposals implements service.ImportService
func (m *MockImportService) RejectProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	proposalIDs []uuid.UUID,
	now time.Time,
) (int, error) {
	if m.RejectProposalsFn != nil {
		return m.RejectProposalsFn(ctx, userID, sessionID, proposalIDs, now)
	}
	return 0, nil
}

// CleanupExpired implements service.ImportService
func (m *MockImportService) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.CleanupExpiredFn != nil {
		return m.CleanupExpiredFn(ctx, now)
	}
	return 0, nil
}

// RequestGeneration implements service.ImportService
func (m *MockImportService) RequestGeneration(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	if m.RequestGenerationFn != nil {
		return m.RequestGenerationFn(ctx, userID, sessionID, now)
	}
	return nil, nil
}

// GenerationInput implements service.ImportService
func (m *MockImportService) GenerationInput(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (string, domain.ProficiencyLevel, error) {
	if m.GenerationInputFn != nil {
		return m.GenerationInputFn(ctx, userID, sessionID, now)
	}
	return "", domain.DefaultProficiency, nil
}

// FailGeneration implements service.ImportService
func (m *MockImportService) FailGeneration(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error {
	if m.FailGenerationFn != nil {
		return m.FailGenerationFn(ctx, userID, sessionID, now)
	}
	return nil
}

// MockStatsService implements service.StatsService.
type MockStatsService struct {
	GetStatsFn func(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Stats, error)
}

var _ service.StatsService = (*MockStatsService)(nil)

// GetStats implements service.StatsService
func (m *MockStatsService) GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Stats, error) {
	if m.GetStatsFn != nil {
		return m.GetStatsFn(ctx, userID, now)
	}
	return &domain.Stats{BoxDistribution: map[int]int{}}, nil
}

// MockUserService implements service.UserService.
type MockUserService struct {
	GetUserFn           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	LoginFn             func(ctx context.Context, email, password string, now time.Time) (*domain.User, error)
	UpdateProficiencyFn func(ctx context.Context, userID uuid.UUID, level domain.ProficiencyLevel, now time.Time) (*domain.User, error)
}

var _ service.UserService = (*MockUserService)(nil)

// GetUser implements service.UserService
func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, userID)
	}
	return nil, nil
}

// Login implements service.UserService
func (m *MockUserService) Login(ctx context.Context, email, password string, now time.Time) (*domain.User, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password, now)
	}
	return nil, nil
}

// UpdateProficiency implements service.UserService
func (m *MockUserService) UpdateProficiency(
	ctx context.Context,
	userID uuid.UUID,
	level domain.ProficiencyLevel,
	now time.Time,
) (*domain.User, error) {
	if m.UpdateProficiencyFn != nil {
		return m.UpdateProficiencyFn(ctx, userID, level, now)
	}
	return nil, nil
}
