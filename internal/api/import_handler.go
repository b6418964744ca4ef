package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lexibox/internal/api/shared"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service"
)

// ImportHandler serves the import pipeline: sessions, generated proposals,
// selection and promotion into cards.
type ImportHandler struct {
	imports service.ImportService
	clock   Clock
	logger  *slog.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports service.ImportService, clock Clock, logger *slog.Logger) *ImportHandler {
	if imports == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("imports cannot be nil for ImportHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		imports: imports,
		clock:   clock,
		logger:  logger.With(slog.String("component", "import_handler")),
	}
}

// CreateSession handles POST /imports.
func (h *ImportHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateImportRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	now := h.clock.now()
	session, err := h.imports.CreateSession(r.Context(), userID, service.ImportSource{URL: req.URL, Content: req.Content}, now)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create import session")
		return
	}

	log.Info("import session created",
		slog.String("session_id", session.ID.String()),
		slog.Int("word_count", session.WordCount))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session, now))
}

// GetSession handles GET /imports/{id}.
func (h *ImportHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	now := h.clock.now()
	session, err := h.imports.GetSession(r.Context(), userID, sessionID, now)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get import session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session, now))
}

// Generate handles POST /imports/{id}/generate. Generation runs in the
// background; the response only confirms it was queued.
func (h *ImportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	now := h.clock.now()
	session, err := h.imports.RequestGeneration(r.Context(), userID, sessionID, now)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start generation")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, sessionToResponse(session, now))
}

// RecordProposals handles POST /imports/{id}/proposals.
func (h *ImportHandler) RecordProposals(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req RecordProposalsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	proposals, err := h.imports.RecordProposals(r.Context(), userID, sessionID, req.Proposals, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record proposals")
		return
	}
	if proposals == nil {
		proposals = []*domain.ProposedCard{}
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ProposalsResponse{Data: proposals})
}

// ListProposals handles GET /imports/{id}/proposals.
func (h *ImportHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	proposals, err := h.imports.ListProposals(r.Context(), userID, sessionID, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list proposals")
		return
	}
	if proposals == nil {
		proposals = []*domain.ProposedCard{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProposalsResponse{Data: proposals})
}

// SetSelection handles PATCH /proposals/{id}.
func (h *ImportHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, proposalID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SelectionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	proposal, err := h.imports.SetSelection(r.Context(), userID, proposalID, *req.IsSelected, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update proposal")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, proposal)
}

// Accept handles POST /imports/{id}/accept. Partial success is reported in
// the body; a retried call reports already consumed proposals instead of
// creating duplicates.
func (h *ImportHandler) Accept(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ProposalIDsRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.imports.AcceptSelected(r.Context(), userID, sessionID, req.ProposalIDs, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to accept proposals")
		return
	}

	log.Info("proposals accepted",
		slog.String("session_id", sessionID.String()),
		slog.Int("requested", result.Requested),
		slog.Int("accepted", result.AcceptedCount),
		slog.Int("already_consumed", result.AlreadyConsumed),
		slog.Int("failed", len(result.Failures)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Reject handles POST /imports/{id}/reject.
func (h *ImportHandler) Reject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ProposalIDsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	rejected, err := h.imports.RejectProposals(r.Context(), userID, sessionID, req.ProposalIDs, h.clock.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reject proposals")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RejectResponse{RejectedCount: rejected})
}
