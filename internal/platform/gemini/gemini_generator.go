package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/lexibox/internal/config"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/generation"
	"google.golang.org/genai"
)

// defaultTemperature keeps replies close to the article's vocabulary.
const defaultTemperature float32 = 0.4

// modelClient is the slice of the genai client the generator uses.
type modelClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	logger         *slog.Logger
	promptTemplate *template.Template
	client         modelClient
	model          string
	maxRetries     int
	baseDelay      time.Duration
	maxProposals   int
	maxContent     int
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator from configuration. It reads the
// prompt template from disk and opens a Gemini API client.
//
// maxProposals and maxContentRunes bound the reply and the text sent to the
// model; non-positive values select the generation package defaults.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
	maxProposals, maxContentRunes int,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := loadTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, tmpl, client.Models, maxProposals, maxContentRunes), nil
}

func newGenerator(
	logger *slog.Logger,
	cfg config.LLMConfig,
	tmpl *template.Template,
	client modelClient,
	maxProposals, maxContentRunes int,
) *GeminiGenerator {
	if maxProposals <= 0 {
		maxProposals = generation.DefaultMaxProposals
	}
	if maxContentRunes <= 0 {
		maxContentRunes = generation.DefaultMaxContentRunes
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		promptTemplate: tmpl,
		client:         client,
		model:          cfg.ModelName,
		maxRetries:     maxRetries,
		baseDelay:      baseDelay,
		maxProposals:   maxProposals,
		maxContent:     maxContentRunes,
	}
}

func loadTemplate(path string) (*template.Template, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, path, err)
	}
	tmpl, err := template.New("proposals").Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// GenerateProposals implements generation.Generator.
func (g *GeminiGenerator) GenerateProposals(
	ctx context.Context,
	content string,
	level domain.ProficiencyLevel,
) ([]domain.ProposalDraft, error) {
	if !level.Valid() {
		level = domain.DefaultProficiency
	}

	prompt, err := g.createPrompt(ctx, content, level)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response)
}

// createPrompt renders the template with the source text cut to the
// configured rune budget.
func (g *GeminiGenerator) createPrompt(
	ctx context.Context,
	content string,
	level domain.ProficiencyLevel,
) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	data := promptData{
		Content:          domain.TruncateRunes(content, g.maxContent),
		ProficiencyLevel: level,
		MaxProposals:     g.maxProposals,
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	g.logger.DebugContext(ctx, "prompt generated",
		slog.Int("content_length", len(data.Content)),
		slog.Int("prompt_length", buf.Len()))
	return buf.String(), nil
}

// callWithRetry calls the model, retrying transient failures with exponential
// backoff and jitter. Blocked and unparseable replies are returned at once.
func (g *GeminiGenerator) callWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	temperature := defaultTemperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}

	for attempt := 0; ; attempt++ {
		log := g.logger.With(slog.Int("attempt", attempt+1), slog.Int("max_attempts", g.maxRetries+1))
		log.InfoContext(ctx, "calling Gemini API")

		resp, err := g.client.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err == nil {
			return g.decode(resp)
		}

		log.ErrorContext(ctx, "Gemini API call failed", slog.String("error", err.Error()))

		if attempt >= g.maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, g.maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * [0.5, 1.0)
		backoff := float64(g.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// decode extracts the JSON reply from the first candidate.
func (g *GeminiGenerator) decode(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(stripCodeFence(text.String())), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// parseResponse converts the reply into drafts, dropping cards that fail
// validation and keeping at most maxProposals.
func (g *GeminiGenerator) parseResponse(ctx context.Context, response *ResponseSchema) ([]domain.ProposalDraft, error) {
	if len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	drafts := make([]domain.ProposalDraft, 0, len(response.Cards))
	for _, c := range response.Cards {
		drafts = append(drafts, domain.ProposalDraft{
			Front:   c.Front,
			Back:    c.Back,
			Context: c.Context,
			Tags:    c.Tags,
		})
	}

	kept := generation.Sanitize(drafts, g.maxProposals)
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no usable cards in response", generation.ErrInvalidResponse)
	}

	g.logger.InfoContext(ctx, "parsed Gemini response",
		slog.Int("returned", len(response.Cards)),
		slog.Int("kept", len(kept)))
	return kept, nil
}

// stripCodeFence removes a ```json fence some models wrap JSON replies in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
