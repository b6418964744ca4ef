package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service"
)

// CardHandler handles card management requests.
type CardHandler struct {
	cardService service.CardService
	clock       Clock
	logger      *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(cardService service.CardService, clock Clock, logger *slog.Logger) *CardHandler {
	if cardService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cardService cannot be nil for CardHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cardService: cardService,
		clock:       clock,
		logger:      logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /cards. The card starts in box 1, due now.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req CardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.CreateCard(r.Context(), userID, req.content(), h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create card")
		return
	}

	log.Debug("card created", slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, card)
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// UpdateCard handles PUT /cards/{id}.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.UpdateCard(r.Context(), userID, cardID, req.content(), h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// ArchiveCard handles POST /cards/{id}/archive.
func (h *CardHandler) ArchiveCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.CardStatusArchived)
}

// UnarchiveCard handles POST /cards/{id}/unarchive.
func (h *CardHandler) UnarchiveCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.CardStatusActive)
}

func (h *CardHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.CardStatus) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.cardService.SetCardStatus(r.Context(), userID, cardID, status, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update card status")
		return
	}

	log.Debug("card status changed",
		slog.String("card_id", cardID.String()),
		slog.String("status", string(status)))
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// DeleteCard handles DELETE /cards/{id}. The card is soft-deleted and
// leaves the review schedule.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), userID, cardID, h.clock.now()); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}

	log.Debug("card deleted", slog.String("card_id", cardID.String()))
	w.WriteHeader(http.StatusNoContent)
}
