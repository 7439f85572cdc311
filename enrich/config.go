package enrich

import (
	"fmt"
	"time"

	"github.com/poiesic/questionbank/storage"
)

// Config holds configuration for the enrichment pipeline.
type Config struct {
	// BatchSize is the number of records processed concurrently per batch.
	BatchSize int

	// BatchDelay is the pause between consecutive batches.
	BatchDelay time.Duration

	// FetchLimit bounds the single read that loads the records to process.
	// It cannot exceed storage.MaxPageSize.
	FetchLimit int

	// MaxRetries is the number of retries after a failed service call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  5,
		BatchDelay: 1 * time.Second,
		FetchLimit: storage.DefaultFetchLimit,
		MaxRetries: 2,
		RetryDelay: 1 * time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: BatchSize must be at least 1", ErrInvalidConfig)
	}
	if c.FetchLimit < 1 || c.FetchLimit > storage.MaxPageSize {
		return fmt.Errorf("%w: FetchLimit must be between 1 and %d, got %d", ErrInvalidConfig, storage.MaxPageSize, c.FetchLimit)
	}
	if c.BatchDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: delays cannot be negative", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: MaxRetries cannot be negative", ErrInvalidConfig)
	}
	return nil
}
