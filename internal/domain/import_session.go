package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerationStatus is the stored progress of proposal generation for a session.
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusCreated    GenerationStatus = "created"
	GenerationStatusGenerating GenerationStatus = "generating"
	GenerationStatusReady      GenerationStatus = "ready"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// SessionState is the effective lifecycle state of an import session,
// computed from its generation status and timestamps.
type SessionState string

const (
	SessionStateCreated    SessionState = "created"
	SessionStateGenerating SessionState = "generating"
	SessionStateReady      SessionState = "ready"
	SessionStateFailed     SessionState = "failed"
	SessionStateConsumed   SessionState = "consumed"
	SessionStateExpired    SessionState = "expired"
)

// DefaultSessionTTL is how long an import session and its proposals live.
const DefaultSessionTTL = 24 * time.Hour

// Import session errors
var (
	ErrSessionSourceEmpty = fmt.Errorf("%w: source url or content is required", ErrInvalidInput)
	ErrInvalidSessionTTL  = fmt.Errorf("%w: session ttl must be positive", ErrInvalidInput)
	ErrInvalidGeneration  = fmt.Errorf("%w: invalid generation status", ErrInvalidInput)

	// ErrImportSessionNotFound is returned for missing, foreign or expired sessions.
	ErrImportSessionNotFound = fmt.Errorf("%w: import session", ErrNotFound)
)

// ImportSession groups the proposals generated from one source document.
type ImportSession struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	SourceURL        string           `json:"source_url,omitempty"`
	SourceContent    string           `json:"source_content,omitempty"`
	WordCount        int              `json:"word_count"`
	GenerationStatus GenerationStatus `json:"generation_status"`
	TotalGenerated   int              `json:"total_generated"`
	TotalAccepted    int              `json:"total_accepted"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
	ConsumedAt       *time.Time       `json:"consumed_at,omitempty"`
}

// NewImportSession creates a session that expires ttl after now.
func NewImportSession(
	userID uuid.UUID,
	sourceURL, sourceContent string,
	now time.Time,
	ttl time.Duration,
) (*ImportSession, error) {
	if ttl <= 0 {
		return nil, ErrInvalidSessionTTL
	}
	now = now.UTC()
	session := &ImportSession{
		ID:               uuid.New(),
		UserID:           userID,
		SourceURL:        strings.TrimSpace(sourceURL),
		SourceContent:    strings.TrimSpace(sourceContent),
		GenerationStatus: GenerationStatusCreated,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
	session.WordCount = WordCount(session.SourceContent)

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate checks if the ImportSession has valid data.
func (s *ImportSession) Validate() error {
	if s.ID == uuid.Nil || s.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if s.SourceURL == "" && s.SourceContent == "" {
		return ErrSessionSourceEmpty
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		return NewValidationError("expires_at", "must be after created_at")
	}
	if !isValidGenerationStatus(s.GenerationStatus) {
		return ErrInvalidGeneration
	}
	return nil
}

// State returns the effective lifecycle state at now. A consumed session
// stays consumed after its expiry passes.
func (s *ImportSession) State(now time.Time) SessionState {
	if s.ConsumedAt != nil {
		return SessionStateConsumed
	}
	if s.Expired(now) {
		return SessionStateExpired
	}
	return SessionState(s.GenerationStatus)
}

// Expired reports whether the session's TTL has elapsed at now.
func (s *ImportSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Open reports whether proposals may still be recorded, selected or accepted.
func (s *ImportSession) Open(now time.Time) bool {
	state := s.State(now)
	return state != SessionStateExpired && state != SessionStateConsumed
}

// OwnedBy reports whether the session belongs to the given user.
func (s *ImportSession) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// UpdateGenerationStatus moves the session to a new generation status.
func (s *ImportSession) UpdateGenerationStatus(status GenerationStatus, now time.Time) error {
	if !isValidGenerationStatus(status) {
		return ErrInvalidGeneration
	}
	s.GenerationStatus = status
	s.UpdatedAt = now.UTC()
	return nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TruncateRunes shortens text to at most limit runes. A non-positive limit
// returns text unchanged.
func TruncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

func isValidGenerationStatus(status GenerationStatus) bool {
	switch status {
	case GenerationStatusCreated, GenerationStatusGenerating,
		GenerationStatusReady, GenerationStatusFailed:
		return true
	default:
		return false
	}
}
