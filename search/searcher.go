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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/similarity"
	"github.com/poiesic/questionbank/storage"
)

const (
	// DefaultTopK is the number of nearest neighbours considered on the vector path.
	DefaultTopK = 50

	// DefaultPageSize is the page size used when loading the corpus.
	DefaultPageSize = storage.MaxPageSize
)

// Search paths reported to Metrics.
const (
	PathVector  = "vector"
	PathKeyword = "keyword"
)

// Query describes a search request. Empty fields are treated as absent.
type Query struct {
	Company string
	Role    string
	Text    string
}

// Metrics receives search observations.
type Metrics interface {
	ObserveSearch(path string, results int, duration time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSearch(string, int, time.Duration, error) {}

// Searcher answers queries against the full question corpus.
type Searcher struct {
	repository        storage.QuestionRepository
	embedder          ai.Embedder
	logger            *slog.Logger
	monitor           SearchMonitor
	metrics           Metrics
	topK              int
	pageSize          int
	semanticOnlyMatch bool
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets how many nearest neighbours the vector path keeps.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return fmt.Errorf("top-k must be positive, got %d", k)
		}
		s.topK = k
		return nil
	}
}

// WithPageSize sets the page size used to load the corpus.
func WithPageSize(size int) Option {
	return func(s *Searcher) error {
		if size <= 0 || size > storage.MaxPageSize {
			return fmt.Errorf("page size must be between 1 and %d, got %d", storage.MaxPageSize, size)
		}
		s.pageSize = size
		return nil
	}
}

// WithMonitor sets the default monitor used by Search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor != nil {
			s.monitor = monitor
		}
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(s *Searcher) error {
		if metrics != nil {
			s.metrics = metrics
		}
		return nil
	}
}

// WithSemanticOnlyMatches controls whether vector-path neighbours that match
// neither filter are returned. When enabled (the default) they are reported
// as role matches; when disabled they are dropped.
func WithSemanticOnlyMatches(enabled bool) Option {
	return func(s *Searcher) error {
		s.semanticOnlyMatch = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.QuestionRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository:        repository,
		embedder:          provider.Embedder(),
		logger:            slog.Default(),
		monitor:           &noopMonitor{},
		metrics:           noopMetrics{},
		topK:              DefaultTopK,
		pageSize:          DefaultPageSize,
		semanticOnlyMatch: true,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Search runs q against the corpus. The result is never nil; on error it is empty.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.SearchCandidate, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs q, reporting each stage to monitor.
// A nil monitor falls back to the searcher's default.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]*core.SearchCandidate, error) {
	if monitor == nil {
		monitor = s.monitor
	}
	path := PathKeyword
	if q.Text != "" {
		path = PathVector
	}

	start := time.Now()
	results, err := s.search(ctx, q, path, monitor)
	s.metrics.ObserveSearch(path, len(results), time.Since(start), err)
	if err != nil {
		s.logger.Error("search failed", "path", path, "err", err)
		return []*core.SearchCandidate{}, err
	}
	monitor.Finish(results)
	return results, nil
}

func (s *Searcher) search(ctx context.Context, q Query, path string, monitor SearchMonitor) ([]*core.SearchCandidate, error) {
	monitor.Start(q)

	records, err := storage.ScanAll(ctx, s.repository, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	monitor.AfterLoad(records)
	s.logger.Debug("loaded corpus", "records", len(records), "path", path)

	if path == PathVector {
		return s.vectorSearch(ctx, q, records, monitor)
	}
	return s.keywordSearch(q, records), nil
}

func (s *Searcher) vectorSearch(ctx context.Context, q Query, records []*core.QuestionRecord, monitor SearchMonitor) ([]*core.SearchCandidate, error) {
	queryVector, err := s.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	byID := make(map[core.ID]*core.QuestionRecord, len(records))
	candidates := make([]similarity.Candidate, 0, len(records))
	for _, record := range records {
		if !record.HasEmbedding() {
			continue
		}
		if len(record.Embedding) != len(queryVector) {
			s.logger.Warn("skipping record with mismatched embedding dimensions",
				"id", record.Id, "dimensions", len(record.Embedding), "expected", len(queryVector))
			continue
		}
		byID[record.Id] = record
		candidates = append(candidates, similarity.Candidate{ID: string(record.Id), Vector: record.Embedding})
	}
	monitor.AfterQueryEmbedding(len(queryVector), len(candidates))

	matches, err := similarity.TopK(queryVector, candidates, s.topK)
	if err != nil {
		return nil, err
	}
	monitor.AfterRanking(matches)

	results := make([]*core.SearchCandidate, 0, len(matches))
	for _, match := range matches {
		record := byID[core.ID(match.ID)]
		companyMatch, roleMatch := matchRecord(record, q)
		if !companyMatch && !roleMatch && !s.semanticOnlyMatch {
			continue
		}
		candidate := core.NewSearchCandidate(record)
		candidate.MatchType = core.ClassifyMatch(companyMatch, roleMatch)
		score := match.Similarity
		candidate.Similarity = &score
		results = append(results, candidate)
	}
	return results, nil
}

func (s *Searcher) keywordSearch(q Query, records []*core.QuestionRecord) []*core.SearchCandidate {
	results := make([]*core.SearchCandidate, 0)
	for _, record := range records {
		companyMatch, roleMatch := matchRecord(record, q)
		if !companyMatch && !roleMatch {
			continue
		}
		candidate := core.NewSearchCandidate(record)
		candidate.MatchType = core.ClassifyMatch(companyMatch, roleMatch)
		results = append(results, candidate)
	}
	return results
}
