package mock

import "github.com/poiesic/questionbank/ai"

// MockProvider implements ai.AIProvider with mock services.
type MockProvider struct {
	embedder   *MockEmbedder
	normalizer *MockNormalizer
}

// NewMockProvider creates a provider with default mock services.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockNormalizer())
}

// NewMockProviderWithServices creates a provider around the given mocks.
func NewMockProviderWithServices(embedder *MockEmbedder, normalizer *MockNormalizer) *MockProvider {
	return &MockProvider{
		embedder:   embedder,
		normalizer: normalizer,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Normalizer() ai.Normalizer {
	return p.normalizer
}

func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock embedder.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockNormalizer returns the concrete mock normalizer.
func (p *MockProvider) GetMockNormalizer() *MockNormalizer {
	return p.normalizer
}
