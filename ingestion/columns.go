package ingestion

import (
	"fmt"
	"strings"
)

// CSV column names.
const (
	ColumnID                = "Question ID"
	ColumnQuestionText      = "Question Text"
	ColumnAnswerText        = "Answer Text"
	ColumnCompany           = "Company"
	ColumnRole              = "Role"
	ColumnFormattedQuestion = "Formatted Question"
	ColumnEmbedding         = "Embedding"
)

// Columns is the canonical column order used when exporting.
var Columns = []string{
	ColumnID,
	ColumnQuestionText,
	ColumnAnswerText,
	ColumnCompany,
	ColumnRole,
	ColumnFormattedQuestion,
	ColumnEmbedding,
}

// columnIndex maps canonical column names to their position in a header row.
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, col := range Columns {
			if strings.EqualFold(name, col) {
				if _, dup := idx[col]; !dup {
					idx[col] = i
				}
			}
		}
	}
	if _, ok := idx[ColumnQuestionText]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnQuestionText)
	}
	return idx, nil
}

// value returns the trimmed cell for col, or "" if the column is absent or the row is short.
func (c columnIndex) value(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
