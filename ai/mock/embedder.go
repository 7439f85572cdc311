package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/questionbank/ai"
)

// DefaultDimensions is the length of vectors produced by the default embedder.
const DefaultDimensions = 384

// MockEmbedder is a configurable ai.Embedder for tests.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	callCount int
	texts     []string
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText returns a deterministic vector for text, or delegates to EmbedTextFunc.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.record(text)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return DeterministicVector(text, DefaultDimensions), nil
}

// EmbedTexts returns deterministic vectors for texts, or delegates to EmbedTextsFunc.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.record(texts...)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = DeterministicVector(text, DefaultDimensions)
	}
	return embeddings, nil
}

func (m *MockEmbedder) record(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.texts = append(m.texts, texts...)
}

// CallCount returns the number of embedding calls made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns every text passed to the embedder, in call order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears call history and custom functions.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// DeterministicVector derives a unit vector of length dim from a hash of text.
// Equal texts always produce equal vectors.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := 1.0 / math.Sqrt(sumSquares)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) * norm)
		}
	}

	return vector
}
