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

package ai

import (
	"fmt"
	"strings"
)

const (
	// DefaultHost is the OpenAI API base URL.
	DefaultHost = "https://api.openai.com/v1"

	// DefaultEmbeddingModel produces 1536-dimension vectors.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultNormalizerModel is the chat model used to normalize questions.
	DefaultNormalizerModel = "gpt-4o"
)

// Config holds configuration for AI services.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// NormalizerHost is the base URL for the chat completion API used to normalize questions.
	NormalizerHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// NormalizerModel is the model identifier to use for question normalization.
	NormalizerModel string

	// APIKey authenticates against the service. Local servers usually ignore it.
	APIKey string

	// RequestsPerSecond paces outbound calls per service. Zero disables pacing.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring AI services.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithNormalizerHost sets the normalization service host.
func WithNormalizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.NormalizerHost = host
	}
}

// WithHost sets both service hosts.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.NormalizerHost = host
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithNormalizerModel sets the normalization model.
func WithNormalizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.NormalizerModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRequestsPerSecond sets the outbound request rate.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   DefaultHost,
		NormalizerHost:  DefaultHost,
		EmbeddingModel:  DefaultEmbeddingModel,
		NormalizerModel: DefaultNormalizerModel,
	}
}

// NewConfig creates a Config with defaults and applies the given options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures hosts end with /v1 for OpenAI-compatible APIs.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.NormalizerHost = normalizeHost(c.NormalizerHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate normalizes the configuration and checks required fields.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	}
	if c.NormalizerHost == "" {
		return fmt.Errorf("%w: NormalizerHost is required", ErrInvalidConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.NormalizerModel == "" {
		return fmt.Errorf("%w: NormalizerModel is required", ErrInvalidConfig)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: RequestsPerSecond cannot be negative", ErrInvalidConfig)
	}
	return nil
}
