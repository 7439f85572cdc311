// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
)

// DefaultBatchSize is the number of rows written to storage per AddQuestions call.
const DefaultBatchSize = 100

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int // rows written to storage
	Skipped  int // rows without question text
	Repaired int // rows whose embedding could not be parsed and was dropped
}

// Importer loads question records from CSV into a repository.
type Importer struct {
	repository storage.QuestionRepository
	batchSize  int
	logger     *slog.Logger
}

// Option configures an Importer or Exporter.
type Option func(*options) error

type options struct {
	batchSize int
	logger    *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithBatchSize sets how many rows are written per storage call.
func WithBatchSize(size int) Option {
	return func(o *options) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		o.batchSize = size
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{batchSize: DefaultBatchSize, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// NewImporter creates a new importer.
func NewImporter(repository storage.QuestionRepository, opts ...Option) (*Importer, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Importer{
		repository: repository,
		batchSize:  o.batchSize,
		logger:     o.logger.With("component", "importer"),
	}, nil
}

// Import reads CSV rows from r and adds them to the repository.
// Rows already written when an error occurs stay written.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	batch := make([]*core.QuestionRecord, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		added, err := im.repository.AddQuestions(ctx, batch...)
		if err != nil {
			return fmt.Errorf("failed to store %d questions: %w", len(batch), err)
		}
		result.Imported += len(added)
		im.logger.Debug("stored batch", "questions", len(added), "total", result.Imported)
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, repaired := im.recordFromRow(cols, row, line)
		if record == nil {
			result.Skipped++
			continue
		}
		if repaired {
			result.Repaired++
		}
		batch = append(batch, record)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	im.logger.Info("import complete",
		"imported", result.Imported, "skipped", result.Skipped, "repaired", result.Repaired)
	return result, nil
}

// recordFromRow builds a record from one CSV row. It returns nil for rows
// without question text and reports whether a malformed embedding was dropped.
func (im *Importer) recordFromRow(cols columnIndex, row []string, line int) (*core.QuestionRecord, bool) {
	text := cols.value(row, ColumnQuestionText)
	if text == "" {
		im.logger.Warn("skipping row without question text", "line", line)
		return nil, false
	}

	record := &core.QuestionRecord{
		Id:             core.ID(cols.value(row, ColumnID)),
		RawText:        text,
		AnswerText:     cols.value(row, ColumnAnswerText),
		Company:        cols.value(row, ColumnCompany),
		Role:           cols.value(row, ColumnRole),
		NormalizedText: cols.value(row, ColumnFormattedQuestion),
	}
	if record.Id == "" {
		record.Id = core.IDFromContent(text)
	}

	embedding, err := core.ParseEmbedding(cols.value(row, ColumnEmbedding))
	if err != nil {
		im.logger.Warn("dropping malformed embedding", "line", line, "id", record.Id, "err", err)
		return record, true
	}
	record.Embedding = embedding
	return record, false
}
