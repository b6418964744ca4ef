package service_test

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func newCard(t *testing.T, userID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, "le chien", "the dog", "", []string{"noun"}, testNow.Add(-48*time.Hour))
	require.NoError(t, err)
	return card
}

func newSession(t *testing.T, userID uuid.UUID) *domain.ImportSession {
	t.Helper()
	session, err := domain.NewImportSession(userID, "", "Le chat dort sur le canapé.", testNow.Add(-time.Hour), 24*time.Hour)
	require.NoError(t, err)
	return session
}

func newProposal(t *testing.T, session *domain.ImportSession, front string) *domain.ProposedCard {
	t.Helper()
	p, err := domain.NewProposedCard(session, domain.ProposalDraft{Front: front, Back: "translation"}, testNow.Add(-30*time.Minute))
	require.NoError(t, err)
	return p
}

func consumed(p *domain.ProposedCard, resolution domain.ProposalResolution) *domain.ProposedCard {
	at := testNow.Add(-time.Minute)
	p.ConsumedAt = &at
	p.Resolution = &resolution
	return p
}
