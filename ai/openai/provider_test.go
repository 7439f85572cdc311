package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/questionbank/ai"
)

func newFakeOpenAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data": []map[string]any{
					{"object": "embedding", "index": 0, "embedding": []float32{0.5, 0.5, 0.5}},
				},
				"model": "text-embedding-3-small",
			})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "gpt-4o",
				"choices": []map[string]any{
					{
						"index":         0,
						"finish_reason": "stop",
						"message":       map[string]any{"role": "assistant", "content": "What is a goroutine?"},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewProvider(t *testing.T) {
	server := newFakeOpenAIServer(t)

	provider, err := NewProvider(ai.NewConfig(ai.WithHost(server.URL), ai.WithAPIKey("sk-test")))
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()

	vector, err := provider.Embedder().EmbedText(ctx, "goroutines")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, vector)

	question, err := provider.Normalizer().NormalizeQuestion(ctx, "tell me about goroutines")
	require.NoError(t, err)
	assert.Equal(t, "What is a goroutine?", question)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
