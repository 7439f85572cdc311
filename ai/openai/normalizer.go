package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/poiesic/questionbank/ai"
)

// Normalizer implements ai.Normalizer using an OpenAI-compatible chat API.
type Normalizer struct {
	client  llms.Model
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ai.Normalizer = (*Normalizer)(nil)

func newNormalizer(config *ai.Config) (*Normalizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.NormalizerHost),
		openai.WithToken(apiToken(config)),
		openai.WithModel(config.NormalizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Normalizer{
		client:  client,
		limiter: newLimiter(config.RequestsPerSecond),
		logger:  slog.Default().With("component", "openai-normalizer"),
	}, nil
}

// NewNormalizer creates a normalizer from config.
func NewNormalizer(config *ai.Config) (ai.Normalizer, error) {
	return newNormalizer(config)
}

// NormalizeQuestion asks the model for the core question behind text.
// Empty model output returns text unchanged.
func (n *Normalizer) NormalizeQuestion(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", ai.ErrEmptyText
	}
	if err := wait(ctx, n.limiter); err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(normalizeSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildNormalizePrompt(text)),
			},
		},
	}

	response, err := n.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		n.logger.Error("failed to normalize question", "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrEnrichmentUnavailable, err)
	}

	if len(response.Choices) < 1 {
		n.logger.Debug("no choices returned from model")
		return text, nil
	}

	normalized := stripMarkdown(response.Choices[0].Content)
	if normalized == "" {
		n.logger.Debug("model returned empty normalization")
		return text, nil
	}
	return normalized, nil
}
