package openai

import (
	"log/slog"

	"github.com/poiesic/questionbank/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible APIs.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewProvider creates a provider with an embedder and a normalizer.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	normalizer, err := newNormalizer(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		normalizer: normalizer,
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Normalizer returns the normalization service.
func (p *Provider) Normalizer() ai.Normalizer {
	return p.normalizer
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
