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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
)

// QuestionRepository implements storage.QuestionRepository for BadgerDB.
type QuestionRepository struct {
	backend   *Backend
	ownsStore bool
	logger    *slog.Logger
}

var _ storage.QuestionRepository = (*QuestionRepository)(nil)

// NewRepository opens a BadgerDB store at path and returns a repository that
// owns it. Closing the repository closes the database.
func NewRepository(path string, logger *slog.Logger) (storage.QuestionRepository, error) {
	backend, err := OpenBackend(path, false, logger)
	if err != nil {
		return nil, err
	}
	repo := newQuestionRepository(backend)
	repo.ownsStore = true
	return repo, nil
}

// NewMemoryRepository returns a repository backed by an in-memory database.
func NewMemoryRepository(logger *slog.Logger) (storage.QuestionRepository, error) {
	backend, err := OpenBackend("", true, logger)
	if err != nil {
		return nil, err
	}
	repo := newQuestionRepository(backend)
	repo.ownsStore = true
	return repo, nil
}

// NewQuestionRepository creates a repository over an existing backend.
// The caller remains responsible for closing the backend.
func NewQuestionRepository(backend *Backend) (*QuestionRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", storage.ErrInvalidQuery)
	}
	return newQuestionRepository(backend), nil
}

func newQuestionRepository(backend *Backend) *QuestionRepository {
	return &QuestionRepository{
		backend: backend,
		logger:  backend.logger,
	}
}

// Close closes the underlying database when the repository owns it.
func (r *QuestionRepository) Close() error {
	if r.ownsStore && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// Count returns the number of stored question records.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(questionRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, wrapUnavailable(err)
	}
	return count, nil
}

// ScanPage returns up to limit records starting at offset, ordered by id.
func (r *QuestionRepository) ScanPage(ctx context.Context, offset, limit int) ([]*core.QuestionRecord, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", storage.ErrInvalidQuery, offset, limit)
	}
	limit = min(limit, storage.MaxPageSize)
	if limit == 0 {
		return []*core.QuestionRecord{}, nil
	}

	results := make([]*core.QuestionRecord, 0, limit)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(questionRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		skipped := 0
		for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if skipped < offset {
				skipped++
				continue
			}
			record, err := r.decodeItem(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return results, nil
}

// FetchBounded returns at most limit records in a single read.
func (r *QuestionRepository) FetchBounded(ctx context.Context, limit int) ([]*core.QuestionRecord, error) {
	return r.ScanPage(ctx, 0, limit)
}

// Update writes the mutable fields of an existing record.
func (r *QuestionRepository) Update(ctx context.Context, record *core.QuestionRecord) error {
	if record == nil || record.Id == "" {
		return fmt.Errorf("%w: %w", core.ErrInvalidQuestion, core.ErrEmptyID)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeQuestionKey(record.Id)
		existing, err := r.readQuestion(tx, key)
		if err != nil {
			return wrapUnavailable(err)
		}
		if existing == nil {
			return fmt.Errorf("question %s: %w", record.Id, storage.ErrNotFound)
		}

		existing.Company = record.Company
		existing.Role = record.Role
		existing.AnswerText = record.AnswerText
		existing.NormalizedText = record.NormalizedText
		existing.Embedding = record.Embedding
		existing.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalQuestion(existing)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return wrapUnavailable(err)
		}
		if err := tx.Commit(); err != nil {
			return wrapUnavailable(err)
		}
		record.UpdatedAt = existing.UpdatedAt
		return nil
	}, true)
}

// AddQuestions inserts new records, deriving ids from content when missing.
// An existing record with the same id is overwritten, except that its
// enrichment survives when the incoming record leaves it blank.
func (r *QuestionRepository) AddQuestions(ctx context.Context, records ...*core.QuestionRecord) ([]*core.QuestionRecord, error) {
	for _, record := range records {
		if err := storage.PrepareForInsert(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			key := makeQuestionKey(record.Id)
			stored, err := r.readQuestion(tx, key)
			if err != nil {
				return wrapUnavailable(err)
			}
			storage.KeepStoredEnrichment(record, stored)
			if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			value, err := storage.MarshalQuestion(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return wrapUnavailable(err)
			}
		}
		if err := tx.Commit(); err != nil {
			return wrapUnavailable(err)
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetQuestion retrieves a single record by id.
func (r *QuestionRepository) GetQuestion(ctx context.Context, id core.ID) (*core.QuestionRecord, error) {
	var result *core.QuestionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readQuestion(tx, makeQuestionKey(id))
		if err != nil {
			return wrapUnavailable(err)
		}
		if result == nil {
			return fmt.Errorf("question %s: %w", id, storage.ErrNotFound)
		}
		return nil
	}, false)
	return result, err
}

// readQuestion reads a record by key, returning nil when the key is absent.
func (r *QuestionRepository) readQuestion(tx *badger.Txn, key []byte) (*core.QuestionRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.decodeItem(item)
}

func (r *QuestionRepository) decodeItem(item *badger.Item) (*core.QuestionRecord, error) {
	var record *core.QuestionRecord
	err := item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalQuestion(val, r.logger)
		return err
	})
	return record, err
}

// wrapUnavailable marks backend failures as ErrStoreUnavailable, leaving
// already classified errors and context errors untouched.
func wrapUnavailable(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrStoreUnavailable),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrSerializationFailed),
		errors.Is(err, storage.ErrInvalidQuery),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
}
