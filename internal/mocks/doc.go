// Package mocks provides shared test doubles for the store, service and
// generation interfaces.
//
// Store mocks are built on testify's mock.Mock so tests can set expectations
// per call:
//
//	cards := &mocks.MockCardStore{}
//	cards.On("GetByID", mock.Anything, cardID).Return(card, nil)
//
// Service, token and generator mocks use function fields with default return
// values, which keeps HTTP handler tests short:
//
//	reviews := &mocks.MockCardReviewService{
//	    NextDueFn: func(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID, now time.Time) (*domain.DueCard, bool, error) {
//	        return nil, false, nil
//	    },
//	}
//
// WithTx on every store mock returns the mock itself, so expectations set
// before a transaction also match calls made inside it.
package mocks
