package search

import "errors"

var (
	// ErrRepositoryRequired is returned when a question repository is not provided.
	ErrRepositoryRequired = errors.New("question repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
