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

// Package search implements the retrieval engine over stored interview questions.
//
// A Searcher loads the whole corpus through storage.ScanAll and answers a
// Query in one of two ways:
//
//   - Vector path (Query.Text set): the query text is embedded, every record
//     with a usable embedding is ranked by cosine similarity, and the top
//     results are classified against the company and role filters.
//   - Keyword path (no Query.Text): every record is classified against the
//     filters and kept when its company or its role matches.
//
// Filters are case-insensitive substring matches. An empty filter matches
// every record; an empty record field never matches a non-empty filter.
//
// # Match Types
//
//   - exact: company and role both match
//   - company: only the company matches
//   - role: only the role matches, or (vector path only) neither does
//
// An empty filter counts as a match here too. A company-only query therefore
// labels every hit for that company exact, not company, and a record with no
// company at all comes back as a role match. Callers that want company
// labels for single-filter queries must compare the filters themselves.
//
// # Monitoring
//
// SearchMonitor receives callbacks at each stage of a search, which the CLI
// uses for verbose diagnostics:
//
//	results, err := searcher.SearchWithMonitor(ctx, query, monitor)
package search
