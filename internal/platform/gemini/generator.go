package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/wordbridge/wordbridge-api/internal/config"
	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/generation"
)

// apiTemperature keeps word choice varied without letting the model
// drift from the requested JSON shape.
const apiTemperature float32 = 0.4

// Generator implements generation.Generator against the Gemini API.
type Generator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// Compile-time check that Generator satisfies the interface.
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed recommendation generator.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger.With("component", "gemini_generator"),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Generate makes a single Gemini API call and parses the response into
// recommendations. API transport failures are wrapped in
// generation.ErrTransientFailure; safety blocks and malformed responses
// map to generation.ErrContentBlocked and generation.ErrInvalidResponse.
func (g *Generator) Generate(
	ctx context.Context,
	profile *domain.StudentProfile,
	writingSample string,
	baseline []domain.BaselineWord,
	batchSize int,
) ([]domain.Recommendation, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: student profile cannot be nil", generation.ErrGenerationFailed)
	}

	if writingSample == "" {
		return nil, fmt.Errorf("%w: writing sample cannot be empty", generation.ErrGenerationFailed)
	}

	prompt := buildPrompt(profile, writingSample, baseline, batchSize)

	g.logger.InfoContext(ctx, "calling Gemini API",
		"model", g.model,
		"student_id", profile.ID,
		"prompt_length", len(prompt),
		"baseline_words", len(baseline))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(apiTemperature),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	recs, err := parseRecommendations(text)
	if err != nil {
		return nil, err
	}

	required := minimumBatch(batchSize)
	if len(recs) < required {
		return nil, fmt.Errorf("%w: model returned %d recommendations, need at least %d",
			generation.ErrInvalidResponse, len(recs), required)
	}

	g.logger.InfoContext(ctx, "Gemini API call successful",
		"student_id", profile.ID,
		"recommendation_count", len(recs))

	return recs, nil
}

// responseText validates the response envelope and extracts its text.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response stopped by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", generation.ErrInvalidResponse)
	}

	return text, nil
}
