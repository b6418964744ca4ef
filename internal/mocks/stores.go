package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockCardStore is a testify mock of store.CardStore.
type MockCardStore struct {
	mock.Mock
}

var _ store.CardStore = (*MockCardStore)(nil)

func (m *MockCardStore) Create(ctx context.Context, card *domain.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardStore) Update(ctx context.Context, card *domain.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *MockCardStore) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *MockCardStore) FrontKeys(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockCardStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// WithTx returns the mock itself.
func (m *MockCardStore) WithTx(*sql.Tx) store.CardStore {
	return m
}

// MockBoxStore is a testify mock of store.BoxStore.
type MockBoxStore struct {
	mock.Mock
}

var _ store.BoxStore = (*MockBoxStore)(nil)

func (m *MockBoxStore) Initialize(ctx context.Context, entry *domain.BoxEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockBoxStore) Get(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoxEntry), args.Error(1)
}

func (m *MockBoxStore) GetForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.BoxEntry, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoxEntry), args.Error(1)
}

func (m *MockBoxStore) Update(ctx context.Context, entry *domain.BoxEntry, expectedLevel int) error {
	return m.Called(ctx, entry, expectedLevel).Error(0)
}

func (m *MockBoxStore) Delete(ctx context.Context, cardID uuid.UUID) error {
	return m.Called(ctx, cardID).Error(0)
}

func (m *MockBoxStore) NextDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	exclude []uuid.UUID,
	limit int,
) ([]*domain.DueCard, error) {
	args := m.Called(ctx, userID, now, exclude, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DueCard), args.Error(1)
}

func (m *MockBoxStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit, offset int,
) ([]*domain.DueCard, int, error) {
	args := m.Called(ctx, userID, now, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.DueCard), args.Int(1), args.Error(2)
}

func (m *MockBoxStore) CountDue(ctx context.Context, userID uuid.UUID, until time.Time) (int, error) {
	args := m.Called(ctx, userID, until)
	return args.Int(0), args.Error(1)
}

func (m *MockBoxStore) LevelDistribution(ctx context.Context, userID uuid.UUID) (map[int]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

// WithTx returns the mock itself.
func (m *MockBoxStore) WithTx(*sql.Tx) store.BoxStore {
	return m
}

// MockReviewStore is a testify mock of store.ReviewStore.
type MockReviewStore struct {
	mock.Mock
}

var _ store.ReviewStore = (*MockReviewStore)(nil)

func (m *MockReviewStore) Create(ctx context.Context, record *domain.ReviewRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockReviewStore) Summarize(
	ctx context.Context,
	userID uuid.UUID,
	sessionID *uuid.UUID,
) (*domain.ReviewSummary, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewSummary), args.Error(1)
}

func (m *MockReviewStore) DailyCounts(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]store.DailyReviewCount, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.DailyReviewCount), args.Error(1)
}

// WithTx returns the mock itself.
func (m *MockReviewStore) WithTx(*sql.Tx) store.ReviewStore {
	return m
}

// MockImportSessionStore is a testify mock of store.ImportSessionStore.
type MockImportSessionStore struct {
	mock.Mock
}

var _ store.ImportSessionStore = (*MockImportSessionStore)(nil)

func (m *MockImportSessionStore) Create(ctx context.Context, session *domain.ImportSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockImportSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportSessionStore) UpdateGenerationStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.GenerationStatus,
	now time.Time,
) error {
	return m.Called(ctx, id, status, now).Error(0)
}

func (m *MockImportSessionStore) AddGenerated(ctx context.Context, id uuid.UUID, n int, now time.Time) error {
	return m.Called(ctx, id, n, now).Error(0)
}

func (m *MockImportSessionStore) IncrementAccepted(ctx context.Context, id uuid.UUID, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *MockImportSessionStore) MarkConsumedIfResolved(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockImportSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// WithTx returns the mock itself.
func (m *MockImportSessionStore) WithTx(*sql.Tx) store.ImportSessionStore {
	return m
}

// MockProposalStore is a testify mock of store.ProposalStore.
type MockProposalStore struct {
	mock.Mock
}

var _ store.ProposalStore = (*MockProposalStore)(nil)

func (m *MockProposalStore) CreateMultiple(ctx context.Context, proposals []*domain.ProposedCard) error {
	return m.Called(ctx, proposals).Error(0)
}

func (m *MockProposalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProposedCard), args.Error(1)
}

func (m *MockProposalStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ProposedCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProposedCard), args.Error(1)
}

func (m *MockProposalStore) ListVisible(
	ctx context.Context,
	sessionID uuid.UUID,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	args := m.Called(ctx, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ProposedCard), args.Error(1)
}

func (m *MockProposalStore) SelectedIDs(ctx context.Context, sessionID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProposalStore) FrontKeys(ctx context.Context, sessionID uuid.UUID) (map[string]struct{}, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockProposalStore) SetSelection(ctx context.Context, id uuid.UUID, isSelected bool, now time.Time) error {
	return m.Called(ctx, id, isSelected, now).Error(0)
}

func (m *MockProposalStore) MarkConsumed(
	ctx context.Context,
	id uuid.UUID,
	resolution domain.ProposalResolution,
	cardID *uuid.UUID,
	now time.Time,
) error {
	return m.Called(ctx, id, resolution, cardID, now).Error(0)
}

// WithTx returns the mock itself.
func (m *MockProposalStore) WithTx(*sql.Tx) store.ProposalStore {
	return m
}

// MockUserStore is a testify mock of store.UserStore.
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) UpdateProficiency(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// WithTx returns the mock itself.
func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}
