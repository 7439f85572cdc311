package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/questionbank/ai"
)

// MockNormalizer is a configurable ai.Normalizer for tests.
type MockNormalizer struct {
	// NormalizeFunc is called by NormalizeQuestion if set.
	NormalizeFunc func(ctx context.Context, text string) (string, error)

	mu        sync.Mutex
	callCount int
}

var _ ai.Normalizer = (*MockNormalizer)(nil)

// NewMockNormalizer creates a mock normalizer with default behavior.
func NewMockNormalizer() *MockNormalizer {
	return &MockNormalizer{}
}

// NormalizeQuestion trims text and ensures it ends with "?", or delegates to NormalizeFunc.
func (m *MockNormalizer) NormalizeQuestion(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(ctx, text)
	}

	normalized := strings.TrimSpace(text)
	if normalized != "" && !strings.HasSuffix(normalized, "?") {
		normalized += "?"
	}
	return normalized, nil
}

// CallCount returns the number of normalization calls made.
func (m *MockNormalizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears call history and the custom function.
func (m *MockNormalizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.NormalizeFunc = nil
}
