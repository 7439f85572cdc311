package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/poiesic/questionbank/ai"
)

// documentEmbedder is the subset of embeddings.Embedder this package uses.
type documentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder implements ai.Embedder using an OpenAI-compatible embeddings API.
type Embedder struct {
	embedder documentEmbedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(apiToken(config)),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		limiter:  newLimiter(config.RequestsPerSecond),
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates an embedding for a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, fmt.Errorf("%w: empty embedding returned", ai.ErrEnrichmentUnavailable)
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := wait(ctx, e.limiter); err != nil {
		return nil, err
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEnrichmentUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ai.ErrEnrichmentUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

// apiToken returns the configured key, or a placeholder for local servers
// that don't require authentication.
func apiToken(config *ai.Config) string {
	if config.APIKey == "" {
		return "none"
	}
	return config.APIKey
}
