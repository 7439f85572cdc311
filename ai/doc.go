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

// Package ai provides abstractions for the language model services used by
// questionbank.
//
// The enrichment pipeline and the retrieval engine depend on these
// interfaces rather than on a concrete vendor SDK:
//
//   - Normalizer: rewrites a raw interview question into its core question
//   - Embedder: generates vector embeddings from text
//   - AIProvider: aggregates both for convenient initialization
//
// # Constructor Return Type Pattern
//
// Production constructors return interfaces:
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test doubles return concrete types so tests can configure and inspect them:
//
//	embedder := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	count := embedder.CallCount()
//
// # Errors
//
// Implementations wrap every service failure in ErrEnrichmentUnavailable so
// callers can treat vendor outages uniformly.
package ai
