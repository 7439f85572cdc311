package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
)

// Exporter writes the contents of a repository as CSV.
type Exporter struct {
	repository storage.QuestionRepository
	pageSize   int
	logger     *slog.Logger
}

// NewExporter creates a new exporter. WithBatchSize sets the read page size.
func NewExporter(repository storage.QuestionRepository, opts ...Option) (*Exporter, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		repository: repository,
		pageSize:   o.batchSize,
		logger:     o.logger.With("component", "exporter"),
	}, nil
}

// Export writes a header row followed by one row per stored record and
// returns the number of records written.
func (ex *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := storage.ScanAll(ctx, ex.repository, ex.pageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load questions: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(rowFromRecord(record)); err != nil {
			return 0, fmt.Errorf("failed to write question %s: %w", record.Id, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	ex.logger.Info("export complete", "questions", len(records))
	return len(records), nil
}

func rowFromRecord(record *core.QuestionRecord) []string {
	return []string{
		string(record.Id),
		record.RawText,
		record.AnswerText,
		record.Company,
		record.Role,
		record.NormalizedText,
		core.FormatEmbedding(record.Embedding),
	}
}
