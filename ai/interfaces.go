package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Normalizer rewrites an interview question into a short, direct question
// that keeps only the concept being tested.
// Implementations must be safe for concurrent use.
type Normalizer interface {
	// NormalizeQuestion returns the canonical form of text. Implementations
	// return the input unchanged when the model produces no usable output.
	NormalizeQuestion(ctx context.Context, text string) (string, error)
}

// AIProvider aggregates the services the enrichment pipeline needs.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Normalizer returns the question normalization service.
	Normalizer() Normalizer

	// Close releases resources held by the provider and its services.
	Close() error
}
