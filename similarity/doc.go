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

// Package similarity implements exhaustive vector ranking.
//
// CosineSimilarity scores a pair of vectors and TopK ranks a candidate set
// against a query vector. There is no index: every candidate is scored on
// every call, which is adequate for corpora of a few thousand records.
package similarity
