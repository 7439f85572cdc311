package sqlstore

import "errors"

var (
	// ErrDBRequired indicates New was called without a database handle.
	ErrDBRequired = errors.New("database handle is required")

	// ErrInvalidDialect indicates a Dialect is missing required functions.
	ErrInvalidDialect = errors.New("dialect must define placeholder and quoting functions")
)
