package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service/card_review"
)

// ReviewHandler serves the review loop: grading cards and picking the next
// due one.
type ReviewHandler struct {
	reviews card_review.CardReviewService
	clock   Clock
	logger  *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews card_review.CardReviewService, clock Clock, logger *slog.Logger) *ReviewHandler {
	if reviews == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviews cannot be nil for ReviewHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		reviews: reviews,
		clock:   clock,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitReview handles POST /reviews.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	outcome, err := h.reviews.SubmitReview(r.Context(), userID, req.CardID, card_review.SubmitReviewRequest{
		Rating:         domain.Rating(req.Rating),
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
	}, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", req.CardID.String()),
		slog.String("rating", req.Rating),
		slog.Int("new_box_level", outcome.NewBoxLevel))
	shared.RespondWithJSON(w, r, http.StatusOK, outcome)
}

// NextReview handles GET /reviews/next?exclude=id,id. A null card means
// nothing is due.
func (h *ReviewHandler) NextReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	exclude, err := parseUUIDList(r.URL.Query().Get("exclude"), "exclude")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, hasMore, err := h.reviews.NextDue(r.Context(), userID, exclude, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next review card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NextReviewResponse{Card: card, HasMore: hasMore})
}

// ScheduledReviews handles GET /reviews/scheduled?limit&offset.
func (h *ReviewHandler) ScheduledReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	limit, err := parseIntQuery(r, "limit", card_review.DefaultPageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := parseIntQuery(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if limit == 0 {
		limit = card_review.DefaultPageSize
	}

	due, total, err := h.reviews.ListDue(r.Context(), userID, h.clock.now(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list scheduled reviews")
		return
	}
	if due == nil {
		due = []*domain.DueCard{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ScheduledResponse{
		Data: due,
		Meta: PageMeta{Limit: limit, Offset: offset, Total: total},
	})
}

// ReviewSummary handles GET /reviews/summary?session_id. Without a session
// it summarizes all of the user's reviews.
func (h *ReviewHandler) ReviewSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var sessionID *uuid.UUID
	if raw := r.URL.Query().Get("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError("session_id", "has invalid format"), "")
			return
		}
		sessionID = &id
	}

	summary, err := h.reviews.Summary(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to summarize reviews")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
