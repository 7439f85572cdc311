package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/questionbank/ai"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreBadger, cfg.Storage.Type)
	assert.Equal(t, DefaultStoragePath, cfg.Storage.Path)
	assert.Equal(t, ai.DefaultHost, cfg.AI.EmbeddingHost)
	assert.Equal(t, ai.DefaultEmbeddingModel, cfg.AI.EmbeddingModel)
	assert.Equal(t, ai.DefaultNormalizerModel, cfg.AI.NormalizerModel)

	assert.Equal(t, 5, cfg.Enrichment.BatchSize)
	require.NotNil(t, cfg.Enrichment.BatchDelay)
	assert.Equal(t, time.Second, *cfg.Enrichment.BatchDelay)
	assert.Equal(t, 1000, cfg.Enrichment.FetchLimit)
	require.NotNil(t, cfg.Enrichment.MaxRetries)
	assert.Equal(t, 2, *cfg.Enrichment.MaxRetries)
	require.NotNil(t, cfg.Enrichment.RetryDelay)
	assert.Equal(t, time.Second, *cfg.Enrichment.RetryDelay)

	assert.Equal(t, 50, cfg.Search.TopK)
	assert.True(t, cfg.Search.SemanticOnlyMatchesOrDefault())

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "questionbank.yaml", `
server:
  host: "0.0.0.0"
  port: 9000
storage:
  type: sqlite
  path: ./data/questions.db
ai:
  embedding_host: http://localhost:11434
  embedding_model: nomic-embed-text
  requests_per_second: 2.5
enrichment:
  batch_size: 10
  batch_delay: 250ms
search:
  top_k: 20
  semantic_only_matches: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, StoreSQLite, cfg.Storage.Type)
	assert.Equal(t, filepath.Join(dir, "data", "questions.db"), cfg.Storage.Path)
	assert.Equal(t, "http://localhost:11434", cfg.AI.EmbeddingHost)
	assert.Equal(t, ai.DefaultHost, cfg.AI.NormalizerHost)
	assert.Equal(t, 2.5, cfg.AI.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Enrichment.BatchSize)
	assert.Equal(t, 250*time.Millisecond, *cfg.Enrichment.BatchDelay)
	assert.Equal(t, 2, *cfg.Enrichment.MaxRetries)
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.False(t, cfg.Search.SemanticOnlyMatchesOrDefault())
}

func TestLoad_ExplicitZeroEnrichmentValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "questionbank.yaml", `
enrichment:
  batch_delay: 0s
  max_retries: 0
  retry_delay: 0s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), *cfg.Enrichment.BatchDelay)
	assert.Equal(t, 0, *cfg.Enrichment.MaxRetries)
	assert.Equal(t, time.Duration(0), *cfg.Enrichment.RetryDelay)

	ec := cfg.EnrichConfig()
	assert.Zero(t, ec.BatchDelay)
	assert.Zero(t, ec.MaxRetries)
	assert.Zero(t, ec.RetryDelay)
	assert.Equal(t, 5, ec.BatchSize)
	require.NoError(t, cfg.Validate())
}

func TestEnrichConfig_NilFieldsUseDefaults(t *testing.T) {
	cfg := &Config{Enrichment: EnrichmentConfig{BatchSize: 3, FetchLimit: 10}}
	ec := cfg.EnrichConfig()
	assert.Equal(t, time.Second, ec.BatchDelay)
	assert.Equal(t, 2, ec.MaxRetries)
	assert.Equal(t, time.Second, ec.RetryDelay)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "server: [unclosed")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Storage.Type = StorePostgres
	cfg.Storage.DSN = "postgres://localhost/questions"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.DSN, loaded.Storage.DSN)
	assert.Equal(t, cfg.Enrichment, loaded.Enrichment)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QUESTIONBANK_STORE":            "postgres",
		"QUESTIONBANK_DSN":              "postgres://db/questions",
		"QUESTIONBANK_PORT":             "9999",
		"QUESTIONBANK_NORMALIZER_MODEL": "gpt-4o-mini",
		"OPENAI_API_KEY":                "sk-test",
		"QUESTIONBANK_EMBEDDING_HOST":   "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, lookup))

	assert.Equal(t, StorePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://db/questions", cfg.Storage.DSN)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.NormalizerModel)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, ai.DefaultHost, cfg.AI.EmbeddingHost, "empty values do not override")
	require.NoError(t, cfg.Validate())

	env["QUESTIONBANK_PORT"] = "not-a-port"
	assert.ErrorIs(t, ApplyEnv(cfg, lookup), ErrInvalidConfig)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "test.env", "QUESTIONBANK_TEST_LOADENV=from-file\n")
	t.Cleanup(func() { os.Unsetenv("QUESTIONBANK_TEST_LOADENV") })

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("QUESTIONBANK_TEST_LOADENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Storage.Type = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = StorePostgres }},
		{"sqlite without path", func(c *Config) { c.Storage.Type = StoreSQLite; c.Storage.Path = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"negative retries", func(c *Config) { n := -1; c.Enrichment.MaxRetries = &n }},
		{"negative rate", func(c *Config) { c.AI.RequestsPerSecond = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.AI.APIKey = "key"
	cfg.Enrichment.BatchSize = 7

	aiCfg := cfg.AIServiceConfig()
	assert.Equal(t, "key", aiCfg.APIKey)
	assert.Equal(t, ai.DefaultNormalizerModel, aiCfg.NormalizerModel)

	enrichCfg := cfg.EnrichConfig()
	assert.Equal(t, 7, enrichCfg.BatchSize)
	require.NoError(t, enrichCfg.Validate())
}
