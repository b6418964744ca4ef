package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/events"
	"github.com/phrazzld/lexibox/internal/generation"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/service/card_review"
	"github.com/phrazzld/lexibox/internal/store"
	"github.com/phrazzld/lexibox/internal/task"
	"golang.org/x/sync/errgroup"
)

// ImportSource is the input of a new import session. At least one of URL
// and Content is required.
type ImportSource struct {
	URL     string `json:"source_url"     validate:"omitempty,url,max=2048"`
	Content string `json:"source_content" validate:"max=200000"`
}

// ExtractedContent is the readable text of a fetched document.
type ExtractedContent struct {
	Source    string
	Text      string
	WordCount int
}

// ContentExtractor turns a URL into readable text. Fetching is an I/O
// concern outside this service; none is configured by default.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}

// AcceptFailure reports one proposal that could not be promoted.
type AcceptFailure struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	Reason     string    `json:"reason"`
}

// AcceptResult summarizes a batch promotion. AcceptedCount is exactly the
// number of cards created by this call.
type AcceptResult struct {
	Requested       int             `json:"requested"`
	AcceptedCount   int             `json:"accepted_count"`
	AlreadyConsumed int             `json:"already_consumed"`
	CardIDs         []uuid.UUID     `json:"card_ids"`
	Failures        []AcceptFailure `json:"failures"`
}

// ImportOptions tunes the import pipeline.
type ImportOptions struct {
	SessionTTL        time.Duration
	AcceptConcurrency int
	MaxProposals      int
	MaxContentChars   int
}

// DefaultImportOptions returns a 24 hour session TTL, four concurrent
// promotions, 15 proposals per session and 3000 characters of generator input.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		SessionTTL:        domain.DefaultSessionTTL,
		AcceptConcurrency: 4,
		MaxProposals:      generation.DefaultMaxProposals,
		MaxContentChars:   generation.DefaultMaxContentRunes,
	}
}

// ImportService drives import sessions from creation through proposal
// selection to promotion into cards.
//
// Proposals start selected (is_selected = true). This is an opt-out UX
// policy: accepting with no explicit ids promotes everything the user did not
// deselect.
type ImportService interface {
	// CreateSession stores a new session for the source text.
	CreateSession(ctx context.Context, userID uuid.UUID, src ImportSource, now time.Time) (*domain.ImportSession, error)

	// GetSession returns one of the user's sessions. Expired sessions that
	// were never consumed are not found.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.ImportSession, error)

	// RecordProposals stores drafts as selected proposals and marks the
	// session ready. Drafts whose front matches an existing card or proposal,
	// ignoring case, are dropped, as are drafts beyond the proposal cap.
	RecordProposals(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		drafts []domain.ProposalDraft,
		now time.Time,
	) ([]*domain.ProposedCard, error)

	// ListProposals returns the session's visible proposals.
	ListProposals(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) ([]*domain.ProposedCard, error)

	// SetSelection toggles a proposal's selection flag.
	SetSelection(
		ctx context.Context,
		userID, proposalID uuid.UUID,
		isSelected bool,
		now time.Time,
	) (*domain.ProposedCard, error)

	// AcceptSelected promotes proposals into cards. With no ids, every
	// selected visible proposal of the session is promoted. Each promotion
	// commits on its own; failures are reported per proposal and do not undo
	// the others. Accepting an already accepted proposal creates no second
	// card and counts as AlreadyConsumed.
	AcceptSelected(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		proposalIDs []uuid.UUID,
		now time.Time,
	) (*AcceptResult, error)

	// RejectProposals resolves the given proposals as rejected and returns
	// how many were rejected by this call.
	RejectProposals(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		proposalIDs []uuid.UUID,
		now time.Time,
	) (int, error)

	// CleanupExpired deletes unconsumed sessions whose expiry is before now,
	// together with their proposals.
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)

	// RequestGeneration moves the session to generating and queues an AI
	// generation task for it.
	RequestGeneration(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.ImportSession, error)

	// GenerationInput returns the generator input for an open session: the
	// source text, truncated, and the owner's proficiency level.
	GenerationInput(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		now time.Time,
	) (string, domain.ProficiencyLevel, error)

	// FailGeneration marks the session's generation as failed.
	FailGeneration(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error
}

// ImportServiceDeps groups the collaborators of the import service.
// Extractor and Emitter are optional.
type ImportServiceDeps struct {
	DB        *sql.DB
	Sessions  store.ImportSessionStore
	Proposals store.ProposalStore
	Cards     store.CardStore
	Users     store.UserStore
	Tracker   *card_review.BoxTracker
	Extractor ContentExtractor
	Emitter   events.EventEmitter
	Retry     store.RetryPolicy
}

// importServiceImpl implements the ImportService interface
type importServiceImpl struct {
	ImportServiceDeps
	opts   ImportOptions
	logger *slog.Logger
}

var _ task.ImportService = (*importServiceImpl)(nil)

// NewImportService creates a new ImportService.
// It returns an error if any of the required dependencies are nil.
func NewImportService(deps ImportServiceDeps, opts ImportOptions, logger *slog.Logger) (ImportService, error) {
	switch {
	case deps.DB == nil:
		return nil, domain.NewValidationError("db", "cannot be nil")
	case deps.Sessions == nil:
		return nil, domain.NewValidationError("sessions", "cannot be nil")
	case deps.Proposals == nil:
		return nil, domain.NewValidationError("proposals", "cannot be nil")
	case deps.Cards == nil:
		return nil, domain.NewValidationError("cards", "cannot be nil")
	case deps.Users == nil:
		return nil, domain.NewValidationError("users", "cannot be nil")
	case deps.Tracker == nil:
		return nil, domain.NewValidationError("tracker", "cannot be nil")
	}

	defaults := DefaultImportOptions()
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaults.SessionTTL
	}
	if opts.AcceptConcurrency <= 0 {
		opts.AcceptConcurrency = defaults.AcceptConcurrency
	}
	if opts.MaxProposals <= 0 {
		opts.MaxProposals = defaults.MaxProposals
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = defaults.MaxContentChars
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &importServiceImpl{
		ImportServiceDeps: deps,
		opts:              opts,
		logger:            logger.With(slog.String("component", "import_service")),
	}, nil
}

// CreateSession implements ImportService.CreateSession
func (s *importServiceImpl) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	src ImportSource,
	now time.Time,
) (*domain.ImportSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	url := strings.TrimSpace(src.URL)
	content := strings.TrimSpace(src.Content)
	wordCount := 0

	if content == "" {
		if url == "" {
			return nil, NewServiceError("import", "create_session", "no source", domain.ErrSessionSourceEmpty)
		}
		// Without an extractor the session keeps only its URL; generation
		// stays unavailable until content exists.
		if s.Extractor != nil {
			extracted, err := s.Extractor.Extract(ctx, url)
			if err != nil {
				log.Warn("content extraction failed", slog.String("error", err.Error()))
				return nil, NewServiceError("import", "create_session", "failed to extract content", err)
			}
			content = extracted.Text
			wordCount = extracted.WordCount
			if extracted.Source != "" {
				url = extracted.Source
			}
		}
	}

	session, err := domain.NewImportSession(userID, url, content, now, s.opts.SessionTTL)
	if err != nil {
		return nil, NewServiceError("import", "create_session", "invalid session", err)
	}
	if wordCount > 0 {
		session.WordCount = wordCount
	}
	err = store.WithRetry(ctx, s.Retry, "create_import_session", func(ctx context.Context) error {
		return s.Sessions.Create(ctx, session)
	})
	if err != nil {
		log.Error("failed to create import session",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("import", "create_session", "failed to save session", err)
	}

	log.Info("import session created",
		slog.String("session_id", session.ID.String()),
		slog.Int("word_count", session.WordCount),
		slog.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// GetSession implements ImportService.GetSession
func (s *importServiceImpl) GetSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	var session *domain.ImportSession
	err := store.WithRetry(ctx, s.Retry, "get_import_session", func(ctx context.Context) error {
		var err error
		session, err = visibleSession(ctx, s.Sessions, userID, sessionID, now)
		return err
	})
	if err != nil {
		return nil, NewServiceError("import", "get_session", "failed to retrieve session", err)
	}
	return session, nil
}

// RecordProposals implements ImportService.RecordProposals
func (s *importServiceImpl) RecordProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	drafts []domain.ProposalDraft,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var recorded []*domain.ProposedCard
	err := store.WithRetry(ctx, s.Retry, "record_proposals", func(ctx context.Context) error {
		return store.RunInTransaction(ctx, s.DB, func(ctx context.Context, tx *sql.Tx) error {
			sessions := s.Sessions.WithTx(tx)
			proposals := s.Proposals.WithTx(tx)

			session, err := openSession(ctx, sessions, userID, sessionID, now)
			if err != nil {
				return err
			}

			cardKeys, err := s.Cards.WithTx(tx).FrontKeys(ctx, userID)
			if err != nil {
				return err
			}
			proposalKeys, err := proposals.FrontKeys(ctx, sessionID)
			if err != nil {
				return err
			}

			fresh := make([]domain.ProposalDraft, 0, len(drafts))
			for _, d := range drafts {
				key := domain.FrontKey(d.Front)
				if _, dup := cardKeys[key]; dup {
					continue
				}
				if _, dup := proposalKeys[key]; dup {
					continue
				}
				fresh = append(fresh, d)
			}
			if remaining := s.opts.MaxProposals - session.TotalGenerated; remaining > 0 {
				fresh = generation.Sanitize(fresh, remaining)
			} else {
				fresh = nil
			}

			recorded = make([]*domain.ProposedCard, 0, len(fresh))
			for _, d := range fresh {
				p, err := domain.NewProposedCard(session, d, now)
				if err != nil {
					return err
				}
				recorded = append(recorded, p)
			}

			if len(recorded) > 0 {
				if err := proposals.CreateMultiple(ctx, recorded); err != nil {
					return err
				}
				if err := sessions.AddGenerated(ctx, sessionID, len(recorded), now); err != nil {
					return err
				}
			}
			return sessions.UpdateGenerationStatus(ctx, sessionID, domain.GenerationStatusReady, now)
		})
	})
	if err != nil {
		log.Error("failed to record proposals",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("import", "record_proposals", "failed to record proposals", err)
	}

	log.Info("proposals recorded",
		slog.String("session_id", sessionID.String()),
		slog.Int("drafts", len(drafts)),
		slog.Int("recorded", len(recorded)))
	return recorded, nil
}

// ListProposals implements ImportService.ListProposals
func (s *importServiceImpl) ListProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) ([]*domain.ProposedCard, error) {
	var proposals []*domain.ProposedCard
	err := store.WithRetry(ctx, s.Retry, "list_proposals", func(ctx context.Context) error {
		if _, err := visibleSession(ctx, s.Sessions, userID, sessionID, now); err != nil {
			return err
		}
		var err error
		proposals, err = s.Proposals.ListVisible(ctx, sessionID, now)
		return err
	})
	if err != nil {
		return nil, NewServiceError("import", "list_proposals", "failed to list proposals", err)
	}
	return proposals, nil
}

// SetSelection implements ImportService.SetSelection
func (s *importServiceImpl) SetSelection(
	ctx context.Context,
	userID, proposalID uuid.UUID,
	isSelected bool,
	now time.Time,
) (*domain.ProposedCard, error) {
	var proposal *domain.ProposedCard
	err := store.WithRetry(ctx, s.Retry, "set_selection", func(ctx context.Context) error {
		p, err := s.Proposals.GetByID(ctx, proposalID)
		if err != nil {
			return proposalError(err)
		}
		if !p.OwnedBy(userID) {
			return domain.ErrProposalNotFound
		}
		if p.Expired(now) {
			return domain.ErrProposalNotFound
		}
		if p.Consumed() {
			return domain.ErrProposalConsumed
		}
		if err := s.Proposals.SetSelection(ctx, proposalID, isSelected, now); err != nil {
			return proposalError(err)
		}
		p.IsSelected = isSelected
		proposal = p
		return nil
	})
	if err != nil {
		return nil, NewServiceError("import", "set_selection", "failed to update selection", err)
	}
	return proposal, nil
}

// AcceptSelected implements ImportService.AcceptSelected
func (s *importServiceImpl) AcceptSelected(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	proposalIDs []uuid.UUID,
	now time.Time,
) (*AcceptResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	candidates := dedupeIDs(proposalIDs)
	err := store.WithRetry(ctx, s.Retry, "accept_candidates", func(ctx context.Context) error {
		if _, err := visibleSession(ctx, s.Sessions, userID, sessionID, now); err != nil {
			return err
		}
		if len(proposalIDs) > 0 {
			return nil
		}
		var err error
		candidates, err = s.Proposals.SelectedIDs(ctx, sessionID, now)
		return err
	})
	if err != nil {
		return nil, NewServiceError("import", "accept", "failed to load session", err)
	}

	result := &AcceptResult{
		Requested: len(candidates),
		CardIDs:   []uuid.UUID{},
		Failures:  []AcceptFailure{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.opts.AcceptConcurrency)
	for _, id := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cardID, err := s.promote(ctx, userID, sessionID, id, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.AcceptedCount++
				result.CardIDs = append(result.CardIDs, cardID)
			case errors.Is(err, domain.ErrAlreadyConsumed):
				result.AlreadyConsumed++
			default:
				log.Warn("proposal promotion failed",
					slog.String("proposal_id", id.String()),
					slog.String("error", err.Error()))
				result.Failures = append(result.Failures, AcceptFailure{ProposalID: id, Reason: errorKind(err)})
			}
			return nil
		})
	}
	// Per-proposal failures land in result; only cancellation fails the group.
	if err := g.Wait(); err != nil {
		log.Warn("accept interrupted",
			slog.String("session_id", sessionID.String()),
			slog.Int("accepted", result.AcceptedCount),
			slog.String("error", err.Error()))
		return nil, NewServiceError("import", "accept", "accept interrupted", err)
	}

	s.markConsumedIfResolved(ctx, sessionID, now)

	log.Info("proposals accepted",
		slog.String("session_id", sessionID.String()),
		slog.Int("requested", result.Requested),
		slog.Int("accepted", result.AcceptedCount),
		slog.Int("already_consumed", result.AlreadyConsumed),
		slog.Int("failed", len(result.Failures)))
	return result, nil
}

// promote turns one proposal into a card with a fresh box entry. The
// proposal row is locked so concurrent accepts of the same proposal create
// one card; the loser sees it consumed.
func (s *importServiceImpl) promote(
	ctx context.Context,
	userID, sessionID, proposalID uuid.UUID,
	now time.Time,
) (uuid.UUID, error) {
	var cardID uuid.UUID
	err := store.WithRetry(ctx, s.Retry, "accept_proposal", func(ctx context.Context) error {
		return store.RunInTransaction(ctx, s.DB, func(ctx context.Context, tx *sql.Tx) error {
			proposals := s.Proposals.WithTx(tx)

			p, err := proposals.GetForUpdate(ctx, proposalID)
			if err != nil {
				return proposalError(err)
			}
			if !p.OwnedBy(userID) || p.ImportSessionID != sessionID {
				return domain.ErrProposalNotFound
			}
			if p.Expired(now) {
				return domain.ErrProposalNotFound
			}
			if p.Consumed() {
				return domain.ErrProposalConsumed
			}

			card, err := p.ToCard(now)
			if err != nil {
				return err
			}
			if err := s.Cards.WithTx(tx).Create(ctx, card); err != nil {
				return err
			}
			if _, err := s.Tracker.WithTx(tx).Initialize(ctx, userID, card.ID, now); err != nil {
				return err
			}
			if err := s.Sessions.WithTx(tx).IncrementAccepted(ctx, sessionID, now); err != nil {
				return err
			}
			if err := proposals.MarkConsumed(ctx, proposalID, domain.ProposalAccepted, &card.ID, now); err != nil {
				return proposalError(err)
			}
			cardID = card.ID
			return nil
		})
	})
	return cardID, err
}

// RejectProposals implements ImportService.RejectProposals
func (s *importServiceImpl) RejectProposals(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	proposalIDs []uuid.UUID,
	now time.Time,
) (int, error) {
	ids := dedupeIDs(proposalIDs)
	if len(ids) == 0 {
		return 0, NewServiceError("import", "reject", "no proposals", ErrNoProposalIDs)
	}

	var rejected int
	err := store.WithRetry(ctx, s.Retry, "reject_proposals", func(ctx context.Context) error {
		rejected = 0
		return store.RunInTransaction(ctx, s.DB, func(ctx context.Context, tx *sql.Tx) error {
			if _, err := visibleSession(ctx, s.Sessions.WithTx(tx), userID, sessionID, now); err != nil {
				return err
			}

			proposals := s.Proposals.WithTx(tx)
			for _, id := range ids {
				p, err := proposals.GetForUpdate(ctx, id)
				if err != nil {
					if store.IsNotFoundError(err) {
						continue
					}
					return err
				}
				if !p.OwnedBy(userID) || p.ImportSessionID != sessionID || !p.Visible(now) {
					continue
				}
				if err := proposals.MarkConsumed(ctx, id, domain.ProposalRejected, nil, now); err != nil {
					return proposalError(err)
				}
				rejected++
			}
			return nil
		})
	})
	if err != nil {
		return 0, NewServiceError("import", "reject", "failed to reject proposals", err)
	}

	s.markConsumedIfResolved(ctx, sessionID, now)
	return rejected, nil
}

func (s *importServiceImpl) markConsumedIfResolved(ctx context.Context, sessionID uuid.UUID, now time.Time) {
	var consumed bool
	err := store.WithRetry(ctx, s.Retry, "mark_session_consumed", func(ctx context.Context) error {
		var err error
		consumed, err = s.Sessions.MarkConsumedIfResolved(ctx, sessionID, now)
		return err
	})
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err != nil {
		log.Warn("failed to check session consumption",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return
	}
	if consumed {
		log.Info("import session consumed", slog.String("session_id", sessionID.String()))
	}
}

// CleanupExpired implements ImportService.CleanupExpired
func (s *importServiceImpl) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := store.WithRetry(ctx, s.Retry, "cleanup_expired_sessions", func(ctx context.Context) error {
		var err error
		deleted, err = s.Sessions.DeleteExpired(ctx, now)
		return err
	})
	if err != nil {
		return 0, NewServiceError("import", "cleanup_expired", "failed to delete expired sessions", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("expired import sessions deleted",
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// RequestGeneration implements ImportService.RequestGeneration
func (s *importServiceImpl) RequestGeneration(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.Emitter == nil {
		return nil, NewServiceError("import", "request_generation", "generation disabled", ErrGenerationUnavailable)
	}

	var session *domain.ImportSession
	err := store.WithRetry(ctx, s.Retry, "request_generation", func(ctx context.Context) error {
		var err error
		session, err = openSession(ctx, s.Sessions, userID, sessionID, now)
		if err != nil {
			return err
		}
		if session.GenerationStatus == domain.GenerationStatusGenerating {
			return ErrGenerationInProgress
		}
		if session.SourceContent == "" {
			return domain.ErrEmptyContent
		}
		if err := s.Sessions.UpdateGenerationStatus(ctx, sessionID, domain.GenerationStatusGenerating, now); err != nil {
			return err
		}
		return session.UpdateGenerationStatus(domain.GenerationStatusGenerating, now)
	})
	if err != nil {
		return nil, NewServiceError("import", "request_generation", "failed to start generation", err)
	}

	event, err := events.NewGenerationRequestEvent(sessionID, userID, now)
	if err == nil {
		err = s.Emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Error("failed to queue generation",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		if failErr := s.FailGeneration(ctx, userID, sessionID, now); failErr != nil {
			log.Error("failed to mark generation failed", slog.String("error", failErr.Error()))
		}
		return nil, NewServiceError("import", "request_generation", "failed to queue generation", err)
	}

	log.Info("generation requested", slog.String("session_id", sessionID.String()))
	return session, nil
}

// GenerationInput implements ImportService.GenerationInput
func (s *importServiceImpl) GenerationInput(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	now time.Time,
) (string, domain.ProficiencyLevel, error) {
	var (
		content string
		level   = domain.DefaultProficiency
	)
	err := store.WithRetry(ctx, s.Retry, "generation_input", func(ctx context.Context) error {
		session, err := openSession(ctx, s.Sessions, userID, sessionID, now)
		if err != nil {
			return err
		}
		content = domain.TruncateRunes(session.SourceContent, s.opts.MaxContentChars)

		user, err := s.Users.GetByID(ctx, userID)
		switch {
		case err == nil:
			level = user.ProficiencyLevel
		case store.IsNotFoundError(err):
			// Unknown users generate at the default level.
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return "", "", NewServiceError("import", "generation_input", "failed to load session", err)
	}
	return content, level, nil
}

// FailGeneration implements ImportService.FailGeneration
func (s *importServiceImpl) FailGeneration(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error {
	err := store.WithRetry(ctx, s.Retry, "fail_generation", func(ctx context.Context) error {
		session, err := s.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return sessionError(err)
		}
		if !session.OwnedBy(userID) {
			return domain.ErrImportSessionNotFound
		}
		return s.Sessions.UpdateGenerationStatus(ctx, sessionID, domain.GenerationStatusFailed, now)
	})
	if err != nil {
		return NewServiceError("import", "fail_generation", "failed to update session", err)
	}
	return nil
}

// openSession loads a session that can still take proposals: owned by the
// user, neither expired nor consumed.
func openSession(
	ctx context.Context,
	sessions store.ImportSessionStore,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, sessionError(err)
	}
	if !session.OwnedBy(userID) || !session.Open(now) {
		return nil, domain.ErrImportSessionNotFound
	}
	return session, nil
}

// visibleSession loads a session the user may still look at. Consumed
// sessions stay visible; expired unconsumed ones do not.
func visibleSession(
	ctx context.Context,
	sessions store.ImportSessionStore,
	userID, sessionID uuid.UUID,
	now time.Time,
) (*domain.ImportSession, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, sessionError(err)
	}
	if !session.OwnedBy(userID) || session.State(now) == domain.SessionStateExpired {
		return nil, domain.ErrImportSessionNotFound
	}
	return session, nil
}

func sessionError(err error) error {
	if store.IsNotFoundError(err) {
		return domain.ErrImportSessionNotFound
	}
	return err
}

func proposalError(err error) error {
	switch {
	case store.IsNotFoundError(err):
		return domain.ErrProposalNotFound
	case errors.Is(err, domain.ErrAlreadyConsumed):
		return fmt.Errorf("%w: %w", domain.ErrProposalConsumed, err)
	default:
		return err
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
