package enrich

import "errors"

var (
	// ErrRepositoryRequired is returned when NewPipeline is called without a repository.
	ErrRepositoryRequired = errors.New("question repository is required")

	// ErrAIProviderRequired is returned when NewPipeline is called without an AI provider.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrInvalidConfig indicates invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid enrichment config")

	// ErrInvalidMaxAttempts is returned when maxAttempts is less than 1.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be at least 1")
)
