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

// Package enrich implements the batch enrichment pipeline.
//
// A Pipeline reads a bounded prefix of the question store, and for every
// record that is not yet fully enriched it normalizes the raw question text
// and computes an embedding of the normalized text. Records are processed in
// small batches: the records of one batch are handled concurrently on a
// worker pool, the whole batch is written back, and the pipeline pauses
// before the next batch to stay under the language model service's rate
// limits.
//
// # Record Handling
//
//   - Fully enriched records (normalized text and a non-empty embedding) are skipped.
//   - Records with empty raw text pass through untouched.
//   - URL questions get NormalizedText = RawText and an empty embedding, with
//     no external calls.
//   - Everything else is normalized (an existing normalized text is reused)
//     and embedded. A normalization failure falls back to the raw text; an
//     embedding failure leaves the record exactly as it was.
//
// # Progress
//
// Run reports human-readable progress through a ProgressSink. Sink calls are
// serialized by the pipeline. WriterSink renders events as newline-delimited
// JSON and ChannelSink hands them to another goroutine without ever blocking
// the pipeline for longer than its timeout.
//
// # Example
//
//	pipeline, err := enrich.NewPipeline(repo, provider, enrich.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer pipeline.Release()
//
//	records, err := pipeline.Run(ctx, enrich.NewWriterSink(os.Stderr))
package enrich
