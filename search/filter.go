package search

import (
	"strings"

	"github.com/poiesic/questionbank/core"
)

// matchesFilter reports whether field contains filter, ignoring case.
// An empty filter matches everything.
func matchesFilter(field, filter string) bool {
	if filter == "" {
		return true
	}
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(filter))
}

// matchRecord evaluates both filters against a record.
func matchRecord(record *core.QuestionRecord, q Query) (companyMatch, roleMatch bool) {
	return matchesFilter(record.Company, q.Company), matchesFilter(record.Role, q.Role)
}
