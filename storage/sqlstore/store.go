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

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
)

const (
	// DefaultTable is the table holding question records.
	DefaultTable = "interviews"

	columns = "id, question_text, answer_text, company, role, formatted_question, embedding, inserted_at, updated_at"
)

// Store implements storage.QuestionRepository over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	logger  *slog.Logger
}

var _ storage.QuestionRepository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(s *Store) error {
		if table == "" {
			return fmt.Errorf("%w: table name cannot be empty", storage.ErrInvalidQuery)
		}
		s.table = table
		return nil
	}
}

// New creates a Store. The Store takes ownership of db and closes it on Close.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	if dialect.Placeholder == nil || dialect.QuoteIdentifier == nil {
		return nil, ErrInvalidDialect
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		table:   DefaultTable,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "sqlstore", "dialect", dialect.Name)
	return s, nil
}

// Migrate creates the question table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	question_text TEXT NOT NULL,
	answer_text TEXT,
	company TEXT,
	role TEXT,
	formatted_question TEXT,
	embedding TEXT,
	inserted_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL DEFAULT 0
)`, s.quotedTable())
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// DB exposes the underlying handle for tests and tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stored question records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.quotedTable())
	if err := row.Scan(&count); err != nil {
		return 0, unavailable("count", err)
	}
	return count, nil
}

// ScanPage returns up to limit records starting at offset, ordered by id.
func (s *Store) ScanPage(ctx context.Context, offset, limit int) ([]*core.QuestionRecord, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", storage.ErrInvalidQuery, offset, limit)
	}
	limit = min(limit, storage.MaxPageSize)
	if limit == 0 {
		return []*core.QuestionRecord{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT %s OFFSET %s",
		columns, s.quotedTable(), s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	return s.query(ctx, "scan page", query, limit, offset)
}

// FetchBounded returns at most limit records in a single read.
func (s *Store) FetchBounded(ctx context.Context, limit int) ([]*core.QuestionRecord, error) {
	return s.ScanPage(ctx, 0, limit)
}

// GetQuestion retrieves a single record by id.
func (s *Store) GetQuestion(ctx context.Context, id core.ID) (*core.QuestionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", columns, s.quotedTable(), s.dialect.Placeholder(1))
	records, err := s.query(ctx, "get question", query, string(id))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, storage.ErrNotFound)
	}
	return records[0], nil
}

// Update writes the mutable fields of an existing record.
func (s *Store) Update(ctx context.Context, record *core.QuestionRecord) error {
	if record == nil || record.Id == "" {
		return fmt.Errorf("%w: %w", core.ErrInvalidQuestion, core.ErrEmptyID)
	}

	p := s.dialect.Placeholder
	stmt := fmt.Sprintf(
		"UPDATE %s SET company = %s, role = %s, answer_text = %s, formatted_question = %s, embedding = %s, updated_at = %s WHERE id = %s",
		s.quotedTable(), p(1), p(2), p(3), p(4), p(5), p(6), p(7))

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, stmt,
		record.Company,
		record.Role,
		record.AnswerText,
		record.NormalizedText,
		embeddingValue(record.Embedding),
		now.UnixMicro(),
		string(record.Id),
	)
	if err != nil {
		return unavailable("update", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return unavailable("update", err)
	}
	if affected == 0 {
		return fmt.Errorf("question %s: %w", record.Id, storage.ErrNotFound)
	}
	record.UpdatedAt = now
	return nil
}

// AddQuestions inserts new records in one transaction, deriving ids from
// content when missing. An existing record with the same id is overwritten,
// except that a blank formatted_question or NULL embedding keeps the stored
// value while question_text is unchanged.
func (s *Store) AddQuestions(ctx context.Context, records ...*core.QuestionRecord) ([]*core.QuestionRecord, error) {
	for _, record := range records {
		if err := storage.PrepareForInsert(record); err != nil {
			return nil, err
		}
	}

	table := s.quotedTable()
	stmt := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s) VALUES (%[3]s)
ON CONFLICT (id) DO UPDATE SET
	question_text = excluded.question_text,
	answer_text = excluded.answer_text,
	company = excluded.company,
	role = excluded.role,
	formatted_question = CASE
		WHEN excluded.formatted_question = '' AND excluded.question_text = %[1]s.question_text
		THEN %[1]s.formatted_question ELSE excluded.formatted_question END,
	embedding = CASE
		WHEN excluded.embedding IS NULL AND excluded.question_text = %[1]s.question_text
		THEN %[1]s.embedding ELSE excluded.embedding END,
	updated_at = excluded.updated_at`,
		table, columns, s.dialect.placeholders(1, 9))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin insert", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, record := range records {
		if record.InsertedAt.IsZero() {
			record.InsertedAt = now
		}
		record.UpdatedAt = now
		_, err := tx.ExecContext(ctx, stmt,
			string(record.Id),
			record.RawText,
			record.AnswerText,
			record.Company,
			record.Role,
			record.NormalizedText,
			embeddingValue(record.Embedding),
			record.InsertedAt.UnixMicro(),
			record.UpdatedAt.UnixMicro(),
		)
		if err != nil {
			return nil, unavailable("insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit insert", err)
	}
	return records, nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]*core.QuestionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var records []*core.QuestionRecord
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	if records == nil {
		records = []*core.QuestionRecord{}
	}
	return records, nil
}

func (s *Store) scanRecord(rows *sql.Rows) (*core.QuestionRecord, error) {
	var (
		id, raw                                     string
		answer, company, role, formatted, embedding sql.NullString
		insertedAt, updatedAt                       sql.NullInt64
	)
	if err := rows.Scan(&id, &raw, &answer, &company, &role, &formatted, &embedding, &insertedAt, &updatedAt); err != nil {
		return nil, err
	}

	record := &core.QuestionRecord{
		Id:             core.ID(id),
		RawText:        raw,
		AnswerText:     answer.String,
		Company:        company.String,
		Role:           role.String,
		NormalizedText: formatted.String,
		InsertedAt:     fromMicros(insertedAt),
		UpdatedAt:      fromMicros(updatedAt),
	}
	if embedding.Valid {
		record.Embedding = storage.DecodeEmbedding(record.Id, embedding.String, s.logger)
	}
	return record, nil
}

func (s *Store) quotedTable() string {
	return s.dialect.QuoteIdentifier(s.table)
}

func embeddingValue(v []float32) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: core.FormatEmbedding(v), Valid: true}
}

func fromMicros(v sql.NullInt64) time.Time {
	if !v.Valid || v.Int64 == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v.Int64).UTC()
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrStoreUnavailable, err)
}
