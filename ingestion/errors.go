package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a question repository is not provided.
	ErrRepositoryRequired = errors.New("question repository required")

	// ErrMissingColumn is returned when a required CSV column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyInput is returned when the CSV input has no header row.
	ErrEmptyInput = errors.New("empty CSV input")
)
