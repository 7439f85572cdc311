package similarity

import "errors"

var (
	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
