package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect describes the driver-specific parts of the generated SQL.
type Dialect struct {
	// Name identifies the dialect in logs.
	Name string

	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier func(name string) string
}

// QuestionMarkPlaceholder renders "?" bind parameters.
func QuestionMarkPlaceholder(int) string { return "?" }

// DollarPlaceholder renders "$n" bind parameters.
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// DoubleQuoteIdentifier quotes an identifier with ANSI double quotes.
func DoubleQuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d Dialect) placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.Placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}
