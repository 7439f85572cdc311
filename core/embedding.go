package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatEmbedding serializes an embedding as a JSON numeric array.
// A nil embedding (not computed) formats as the empty string; an empty,
// non-nil embedding formats as "[]".
func FormatEmbedding(v []float32) string {
	if v == nil {
		return ""
	}
	if len(v) == 0 {
		return "[]"
	}
	data, err := json.Marshal(v)
	if err != nil {
		// float32 values produced by embedders are always finite
		return ""
	}
	return string(data)
}

// ParseEmbedding parses a stored embedding produced by FormatEmbedding.
// The empty string yields nil; "[]" yields an empty, non-nil slice.
func ParseEmbedding(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEmbedding, err)
	}
	if v == nil {
		v = []float32{}
	}
	return v, nil
}
