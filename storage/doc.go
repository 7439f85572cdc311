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

// Package storage provides the record store abstraction for questionbank.
//
// QuestionRepository decouples the enrichment pipeline and the retrieval
// engine from a concrete backend. Three backends ship with the module:
//
//   - storage/badger: embedded BadgerDB (default, also used in tests)
//   - storage/sqlite: SQLite via modernc.org/sqlite
//   - storage/postgres: PostgreSQL via lib/pq
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the QuestionRepository interface:
//
//	repo, err := badger.NewRepository("/path/to/db")  // returns storage.QuestionRepository
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Paging
//
// Every backend caps a single ScanPage call at MaxPageSize rows. ScanAll
// composes Count and ScanPage into a full scan and fails as a whole if any
// page fails, so callers never see a silently truncated corpus.
//
// # Embedding Encoding
//
// Embeddings are stored as JSON numeric array text (see core.FormatEmbedding).
// An absent embedding is stored as NULL or empty text; the URL sentinel is
// stored as "[]". A stored value that does not parse is logged and the record
// is loaded without an embedding.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
