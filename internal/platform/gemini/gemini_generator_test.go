package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/phrazzld/lexibox/internal/config"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModel struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func testGenerator(t *testing.T, model modelClient, maxRetries int) *GeminiGenerator {
	t.Helper()
	tmpl := template.Must(template.New("test").Option("missingkey=error").Parse(
		"level={{.ProficiencyLevel}} max={{.MaxProposals}} text={{.Content}}"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := newGenerator(logger, config.LLMConfig{
		ModelName:  "test-model",
		MaxRetries: maxRetries,
	}, tmpl, model, 5, 20)
	g.baseDelay = time.Millisecond
	return g
}

func TestGenerateProposals_Success(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []*genai.GenerateContentResponse{textResponse(
		"```json\n" + `{"cards":[
			{"front":"la maison","back":"the house","tags":["noun"," noun ",""]},
			{"front":"La Maison","back":"duplicate"},
			{"front":"","back":"missing front"},
			{"front":"le chat","back":"the cat","context":"Le chat dort."}
		]}` + "\n```")}}
	g := testGenerator(t, model, 0)

	drafts, err := g.GenerateProposals(context.Background(), "Le chat dort dans la maison.", domain.ProficiencyLevel("A2"))
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "la maison", drafts[0].Front)
	assert.Equal(t, []string{"noun"}, drafts[0].Tags)
	assert.Equal(t, "le chat", drafts[1].Front)
	assert.Equal(t, "Le chat dort.", drafts[1].Context)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "level=A2")
	assert.Contains(t, model.prompts[0], "max=5")
}

func TestGenerateProposals_TruncatesContentAndDefaultsLevel(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []*genai.GenerateContentResponse{
		textResponse(`{"cards":[{"front":"a","back":"b"}]}`),
	}}
	g := testGenerator(t, model, 0)

	_, err := g.GenerateProposals(context.Background(), strings.Repeat("é", 50), domain.ProficiencyLevel("Z9"))
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "level="+string(domain.DefaultProficiency))
	assert.Contains(t, model.prompts[0], "text="+strings.Repeat("é", 20))
	assert.NotContains(t, model.prompts[0], strings.Repeat("é", 21))
}

func TestGenerateProposals_Errors(t *testing.T) {
	t.Parallel()

	apiErr := errors.New("503 unavailable")

	testCases := []struct {
		name        string
		content     string
		model       *fakeModel
		maxRetries  int
		expectedErr error
		expectCalls int
	}{
		{
			name:        "empty content",
			content:     "   ",
			model:       &fakeModel{},
			expectedErr: ErrEmptyContent,
			expectCalls: 0,
		},
		{
			name:        "retries exhausted",
			content:     "text",
			model:       &fakeModel{errs: []error{apiErr, apiErr, apiErr}},
			maxRetries:  2,
			expectedErr: generation.ErrTransientFailure,
			expectCalls: 3,
		},
		{
			name:    "blocked by safety filters",
			content: "text",
			model: &fakeModel{responses: []*genai.GenerateContentResponse{{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}}},
			maxRetries:  2,
			expectedErr: generation.ErrContentBlocked,
			expectCalls: 1,
		},
		{
			name:        "no candidates",
			content:     "text",
			model:       &fakeModel{responses: []*genai.GenerateContentResponse{{}}},
			expectedErr: generation.ErrInvalidResponse,
			expectCalls: 1,
		},
		{
			name:        "malformed json",
			content:     "text",
			model:       &fakeModel{responses: []*genai.GenerateContentResponse{textResponse("not json")}},
			expectedErr: generation.ErrInvalidResponse,
			expectCalls: 1,
		},
		{
			name:        "no usable cards",
			content:     "text",
			model:       &fakeModel{responses: []*genai.GenerateContentResponse{textResponse(`{"cards":[{"front":" "}]}`)}},
			expectedErr: generation.ErrInvalidResponse,
			expectCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := testGenerator(t, tc.model, tc.maxRetries)
			_, err := g.GenerateProposals(context.Background(), tc.content, domain.DefaultProficiency)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, tc.expectCalls, tc.model.calls)
		})
	}
}

func TestGenerateProposals_RecoversAfterTransientError(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		errs: []error{errors.New("timeout"), nil},
		responses: []*genai.GenerateContentResponse{
			nil,
			textResponse(`{"cards":[{"front":"a","back":"b"}]}`),
		},
	}
	g := testGenerator(t, model, 3)

	drafts, err := g.GenerateProposals(context.Background(), "text", domain.DefaultProficiency)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, 2, model.calls)
}

func TestNewGeminiGenerator_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	valid := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(valid, []byte("{{.Content}}"), 0o600))
	broken := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(broken, []byte("{{.Content"), 0o600))

	testCases := []struct {
		name string
		cfg  config.LLMConfig
	}{
		{"missing key", config.LLMConfig{ModelName: "m", PromptTemplatePath: valid}},
		{"missing model", config.LLMConfig{GeminiAPIKey: "k", PromptTemplatePath: valid}},
		{"missing template", config.LLMConfig{GeminiAPIKey: "k", ModelName: "m"}},
		{"unreadable template", config.LLMConfig{
			GeminiAPIKey: "k", ModelName: "m", PromptTemplatePath: filepath.Join(dir, "nope.txt"),
		}},
		{"unparseable template", config.LLMConfig{GeminiAPIKey: "k", ModelName: "m", PromptTemplatePath: broken}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewGeminiGenerator(context.Background(), logger, tc.cfg, 0, 0)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}

	_, err := NewGeminiGenerator(context.Background(), nil, config.LLMConfig{}, 0, 0)
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
