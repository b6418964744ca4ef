package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service"
)

// AccountHandler serves per-user statistics and settings.
type AccountHandler struct {
	stats  service.StatsService
	users  service.UserService
	clock  Clock
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	stats service.StatsService,
	users service.UserService,
	clock Clock,
	logger *slog.Logger,
) *AccountHandler {
	if stats == nil || users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stats and users cannot be nil for AccountHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		stats:  stats,
		users:  users,
		clock:  clock,
		logger: logger.With(slog.String("component", "account_handler")),
	}
}

// GetStats handles GET /stats.
func (h *AccountHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.stats.GetStats(r.Context(), userID, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// UpdateSettings handles PUT /settings.
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req SettingsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	user, err := h.users.UpdateProficiency(r.Context(), userID, domain.ProficiencyLevel(req.ProficiencyLevel), h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update settings")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
		ProficiencyLevel: user.ProficiencyLevel,
		UpdatedAt:        user.UpdatedAt,
	})
}
