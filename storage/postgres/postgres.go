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

// Package postgres provides a PostgreSQL-backed question repository using
// the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/poiesic/questionbank/storage"
	"github.com/poiesic/questionbank/storage/sqlstore"
)

// Dialect is the PostgreSQL flavor of the shared SQL.
var Dialect = sqlstore.Dialect{
	Name:            "postgres",
	Placeholder:     sqlstore.DollarPlaceholder,
	QuoteIdentifier: pq.QuoteIdentifier,
}

// Open connects to PostgreSQL using dsn, ensures the schema exists, and
// returns a repository that owns the connection pool.
func Open(ctx context.Context, dsn string, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn required", storage.ErrInvalidQuery)
	}

	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w: %w", storage.ErrStoreUnavailable, err)
	}

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
