package ai

import "errors"

var (
	// ErrEnrichmentUnavailable indicates the language model service failed or could not be reached.
	ErrEnrichmentUnavailable = errors.New("enrichment service unavailable")

	// ErrEmptyText indicates an embedding or normalization was requested for empty text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidConfig indicates an invalid AI configuration.
	ErrInvalidConfig = errors.New("invalid ai config")
)
