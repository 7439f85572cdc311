package config

import (
	"time"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/search"
)

// Default values not owned by another package.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 8080
	DefaultRequestTimeout = 10 * time.Minute
	DefaultStoragePath    = "questionbank.db"
)

// ApplyDefaults sets default values for any zero values in cfg. Pointer
// fields are only defaulted when nil, so an explicit zero survives.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StoreBadger
	}
	if cfg.Storage.Path == "" && cfg.Storage.Type != StorePostgres {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = ai.DefaultHost
	}
	if cfg.AI.NormalizerHost == "" {
		cfg.AI.NormalizerHost = ai.DefaultHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = ai.DefaultEmbeddingModel
	}
	if cfg.AI.NormalizerModel == "" {
		cfg.AI.NormalizerModel = ai.DefaultNormalizerModel
	}

	defaults := enrich.DefaultConfig()
	if cfg.Enrichment.BatchSize == 0 {
		cfg.Enrichment.BatchSize = defaults.BatchSize
	}
	if cfg.Enrichment.BatchDelay == nil {
		cfg.Enrichment.BatchDelay = &defaults.BatchDelay
	}
	if cfg.Enrichment.FetchLimit == 0 {
		cfg.Enrichment.FetchLimit = defaults.FetchLimit
	}
	if cfg.Enrichment.MaxRetries == nil {
		cfg.Enrichment.MaxRetries = &defaults.MaxRetries
	}
	if cfg.Enrichment.RetryDelay == nil {
		cfg.Enrichment.RetryDelay = &defaults.RetryDelay
	}

	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = search.DefaultTopK
	}
	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = search.DefaultPageSize
	}
}
