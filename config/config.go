// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads questionbank configuration from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/enrich"
)

// Storage backends.
const (
	StoreBadger   = "badger"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Search     SearchConfig     `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and locates the record store.
type StorageConfig struct {
	Type string `yaml:"type"` // badger, sqlite or postgres
	Path string `yaml:"path"` // badger directory or sqlite file
	DSN  string `yaml:"dsn"`  // postgres connection string
}

// AIConfig holds the embedding and normalization service settings.
type AIConfig struct {
	EmbeddingHost     string  `yaml:"embedding_host"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	NormalizerHost    string  `yaml:"normalizer_host"`
	NormalizerModel   string  `yaml:"normalizer_model"`
	APIKey            string  `yaml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// EnrichmentConfig holds batch pipeline settings. The pointer fields accept
// an explicit zero; nil means the default.
type EnrichmentConfig struct {
	BatchSize  int            `yaml:"batch_size"`
	BatchDelay *time.Duration `yaml:"batch_delay"`
	FetchLimit int            `yaml:"fetch_limit"`
	MaxRetries *int           `yaml:"max_retries"`
	RetryDelay *time.Duration `yaml:"retry_delay"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	TopK                int   `yaml:"top_k"`
	PageSize            int   `yaml:"page_size"`
	SemanticOnlyMatches *bool `yaml:"semantic_only_matches"`
}

// SemanticOnlyMatchesOrDefault reports whether vector neighbours matching
// neither filter are returned; defaults to true when unset.
func (s *SearchConfig) SemanticOnlyMatchesOrDefault() bool {
	if s.SemanticOnlyMatches != nil {
		return *s.SemanticOnlyMatches
	}
	return true
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, resolves relative paths
// against the file's directory, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Storage.Path = expandPath(cfg.Storage.Path, filepath.Dir(path))

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with QUESTIONBANK_* variables and OPENAI_API_KEY.
// lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("QUESTIONBANK_HOST", &cfg.Server.Host)
	str("QUESTIONBANK_STORE", &cfg.Storage.Type)
	str("QUESTIONBANK_DB", &cfg.Storage.Path)
	str("QUESTIONBANK_DSN", &cfg.Storage.DSN)
	str("QUESTIONBANK_EMBEDDING_HOST", &cfg.AI.EmbeddingHost)
	str("QUESTIONBANK_EMBEDDING_MODEL", &cfg.AI.EmbeddingModel)
	str("QUESTIONBANK_NORMALIZER_HOST", &cfg.AI.NormalizerHost)
	str("QUESTIONBANK_NORMALIZER_MODEL", &cfg.AI.NormalizerModel)
	str("OPENAI_API_KEY", &cfg.AI.APIKey)
	str("QUESTIONBANK_API_KEY", &cfg.AI.APIKey)

	if v, ok := lookup("QUESTIONBANK_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: QUESTIONBANK_PORT=%q", ErrInvalidConfig, v)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StoreBadger, StoreSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for %s", ErrInvalidConfig, c.Storage.Type)
		}
	case StorePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage type %q", ErrInvalidConfig, c.Storage.Type)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if err := c.EnrichConfig().Validate(); err != nil {
		return err
	}
	aiCfg := c.AIServiceConfig()
	return aiCfg.Validate()
}

// AIServiceConfig converts the ai section into an ai.Config.
func (c *Config) AIServiceConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithNormalizerHost(c.AI.NormalizerHost),
		ai.WithNormalizerModel(c.AI.NormalizerModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithRequestsPerSecond(c.AI.RequestsPerSecond),
	)
}

// EnrichConfig converts the enrichment section into an enrich.Config.
func (c *Config) EnrichConfig() *enrich.Config {
	defaults := enrich.DefaultConfig()
	return &enrich.Config{
		BatchSize:  c.Enrichment.BatchSize,
		BatchDelay: valueOr(c.Enrichment.BatchDelay, defaults.BatchDelay),
		FetchLimit: c.Enrichment.FetchLimit,
		MaxRetries: valueOr(c.Enrichment.MaxRetries, defaults.MaxRetries),
		RetryDelay: valueOr(c.Enrichment.RetryDelay, defaults.RetryDelay),
	}
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// expandPath resolves paths starting with "./" against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
