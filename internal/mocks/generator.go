package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateProposalsFn allows test cases to mock the GenerateProposals behavior
	GenerateProposalsFn func(
		ctx context.Context,
		content string,
		level domain.ProficiencyLevel,
	) ([]domain.ProposalDraft, error)

	// Default response values
	Drafts []domain.ProposalDraft
	Err    error

	mu       sync.Mutex
	contents []string
	levels   []domain.ProficiencyLevel
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateProposals implements the generation.Generator interface
func (m *MockGenerator) GenerateProposals(
	ctx context.Context,
	content string,
	level domain.ProficiencyLevel,
) ([]domain.ProposalDraft, error) {
	m.mu.Lock()
	m.contents = append(m.contents, content)
	m.levels = append(m.levels, level)
	m.mu.Unlock()

	if m.GenerateProposalsFn != nil {
		return m.GenerateProposalsFn(ctx, content, level)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Drafts, nil
}

// Calls returns how many times GenerateProposals was called.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contents)
}

// Contents returns the content passed to each call, in order.
func (m *MockGenerator) Contents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.contents...)
}

// Levels returns the proficiency level passed to each call, in order.
func (m *MockGenerator) Levels() []domain.ProficiencyLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ProficiencyLevel(nil), m.levels...)
}

// NewMockGeneratorWithDrafts returns a generator that always proposes the
// given drafts.
func NewMockGeneratorWithDrafts(drafts ...domain.ProposalDraft) *MockGenerator {
	return &MockGenerator{Drafts: drafts}
}

// MockGeneratorThatFails returns a generator that always fails with
// generation.ErrGenerationFailed.
func MockGeneratorThatFails() *MockGenerator {
	return &MockGenerator{Err: generation.ErrGenerationFailed}
}
