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

// Package mock provides test doubles for the ai package interfaces.
//
// The mocks are safe for concurrent use, so they can stand in for real
// services inside the enrichment pipeline's worker pool.
//
// # Usage
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	normalizer := mock.NewMockNormalizer()
//	provider := mock.NewMockProviderWithServices(embedder, normalizer)
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic unit vectors derived from a text hash
//   - MockNormalizer: trims the text and ensures it ends with a question mark
//   - MockProvider: aggregates a mock embedder and normalizer
package mock
