package storage

import (
	"context"

	"github.com/poiesic/questionbank/core"
)

const (
	// MaxPageSize is the largest number of rows a single ScanPage call returns.
	MaxPageSize = 1000

	// DefaultFetchLimit is the bounded read size used by the enrichment pipeline.
	DefaultFetchLimit = 1000
)

// QuestionRepository provides operations for managing question records.
// Implementations must be thread-safe and support concurrent access.
type QuestionRepository interface {
	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// ScanPage returns up to limit records starting at offset, in stable id order.
	// limit is capped at MaxPageSize. Transport failures wrap ErrStoreUnavailable.
	ScanPage(ctx context.Context, offset, limit int) ([]*core.QuestionRecord, error)

	// FetchBounded returns at most limit records in a single read, in stable id order.
	FetchBounded(ctx context.Context, limit int) ([]*core.QuestionRecord, error)

	// Update writes the mutable fields of an existing record (Company, Role,
	// AnswerText, NormalizedText, Embedding) keyed by Id and sets UpdatedAt.
	// Returns ErrNotFound if the record doesn't exist.
	Update(ctx context.Context, record *core.QuestionRecord) error

	// AddQuestions inserts new records. Records without an Id get one derived
	// from their RawText. Sets InsertedAt if not already set.
	// Returns the records with ids and timestamps populated.
	AddQuestions(ctx context.Context, records ...*core.QuestionRecord) ([]*core.QuestionRecord, error)

	// GetQuestion retrieves a single record by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetQuestion(ctx context.Context, id core.ID) (*core.QuestionRecord, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
