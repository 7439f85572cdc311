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

// Package sqlite provides a SQLite-backed question repository using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/poiesic/questionbank/storage"
	"github.com/poiesic/questionbank/storage/sqlstore"
)

// Dialect is the SQLite flavor of the shared SQL.
var Dialect = sqlstore.Dialect{
	Name:            "sqlite",
	Placeholder:     sqlstore.QuestionMarkPlaceholder,
	QuoteIdentifier: sqlstore.DoubleQuoteIdentifier,
}

// Open opens (creating if needed) the SQLite database at path, ensures the
// schema exists, and returns a repository that owns the connection.
func Open(ctx context.Context, path string, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path required", storage.ErrInvalidQuery)
	}

	// Each pragma must be prefixed with `_pragma=` for modernc.org/sqlite.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w: %w", path, storage.ErrStoreUnavailable, err)
	}

	// Single connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	store, err := sqlstore.New(db, Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
