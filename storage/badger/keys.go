package badger

import (
	"github.com/poiesic/questionbank/core"
)

// Key prefixes for different data types
const (
	questionRecordPrefix = "quesrec:"
)

// makeQuestionKey generates a key for a question record by ID.
// Keys sort lexicographically by id, which gives scans a stable order.
func makeQuestionKey(id core.ID) []byte {
	buf := make([]byte, 0, len(questionRecordPrefix)+len(id))
	buf = append(buf, questionRecordPrefix...)
	return append(buf, id...)
}
