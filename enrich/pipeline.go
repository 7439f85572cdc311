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

package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
)

// Pipeline normalizes and embeds stored questions in paced batches.
type Pipeline struct {
	repo       storage.QuestionRepository
	embedder   ai.Embedder
	normalizer ai.Normalizer
	config     *Config
	pool       *ants.Pool
	metrics    Metrics
	logger     *slog.Logger
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics receiver.
func WithMetrics(metrics Metrics) Option {
	return func(p *Pipeline) error {
		if metrics == nil {
			metrics = noopMetrics{}
		}
		p.metrics = metrics
		return nil
	}
}

// NewPipeline creates a pipeline. A nil config uses DefaultConfig.
// The caller must call Release when done.
func NewPipeline(repo storage.QuestionRepository, provider ai.AIProvider, config *Config, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:       repo,
		embedder:   provider.Embedder(),
		normalizer: provider.Normalizer(),
		config:     config,
		metrics:    noopMetrics{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "enrich")

	pool, err := ants.NewPool(config.BatchSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Run processes up to FetchLimit stored records and returns them in their
// post-run state. Store failures abort the run, are reported to sink as an
// EventFailed event, and are returned. A nil sink discards progress.
func (p *Pipeline) Run(ctx context.Context, sink ProgressSink) ([]*core.QuestionRecord, error) {
	if sink == nil {
		sink = NoopSink{}
	}
	em := &emitter{sink: sink}
	logger := p.logger.With("run", uuid.NewString())
	start := time.Now()

	records, err := p.repo.FetchBounded(ctx, p.config.FetchLimit)
	if err != nil {
		return nil, p.fail(em, logger, start, 0, fmt.Errorf("failed to load questions: %w", err))
	}
	total := len(records)

	if stored, err := p.repo.Count(ctx); err != nil {
		logger.Warn("unable to count stored questions", "err", err)
	} else if stored > total {
		msg := fmt.Sprintf("Processing the first %d of %d questions (fetch limit %d)", total, stored, p.config.FetchLimit)
		logger.Warn(msg)
		em.emit(Event{Kind: EventWarning, Message: msg, Total: total})
	}

	logger.Info("starting enrichment run", "questions", total, "batchSize", p.config.BatchSize)
	em.emit(Event{Kind: EventStarted, Message: fmt.Sprintf("Found %d questions to process", total), Total: total})

	tracker := NewProgressTracker(total)
	tracker.Start()

	batchSize := p.config.BatchSize
	batches := (total + batchSize - 1) / batchSize
	results := make([]*core.QuestionRecord, 0, total)

	for b := 0; b < batches; b++ {
		if b > 0 {
			if err := sleepContext(ctx, p.config.BatchDelay); err != nil {
				return nil, p.fail(em, logger, start, tracker.Current(), err)
			}
		}

		from := b * batchSize
		to := min(from+batchSize, total)
		em.emit(Event{
			Kind:      EventBatchStarted,
			Message:   fmt.Sprintf("Processing batch %d/%d (%d-%d of %d questions)", b+1, batches, from+1, to, total),
			Processed: from,
			Total:     total,
		})

		batchStart := time.Now()
		processed := p.processBatch(ctx, records[from:to], em, logger)
		if err := p.persistBatch(ctx, processed); err != nil {
			return nil, p.fail(em, logger, start, tracker.Current(), err)
		}
		p.metrics.ObserveBatch(len(processed), time.Since(batchStart))

		results = append(results, processed...)
		tracker.Increment(len(processed))
		em.emit(Event{
			Kind:      EventBatchProgress,
			Message:   fmt.Sprintf("Progress: %d/%d questions processed (%d remaining)", tracker.Current(), total, tracker.Remaining()),
			Processed: tracker.Current(),
			Total:     total,
		})
	}

	tracker.Finish()
	logger.Info("enrichment run complete",
		"questions", total,
		"elapsed", tracker.Elapsed(),
		"rate", fmt.Sprintf("%.1f/s", tracker.Rate()))
	p.metrics.ObserveRun(true, total, time.Since(start))
	em.emit(Event{Kind: EventCompleted, Message: "All questions processed successfully!", Processed: total, Total: total})

	return results, nil
}

func (p *Pipeline) fail(em *emitter, logger *slog.Logger, start time.Time, processed int, err error) error {
	logger.Error("enrichment run failed", "processed", processed, "err", err)
	p.metrics.ObserveRun(false, processed, time.Since(start))
	em.emit(Event{Kind: EventFailed, Message: err.Error(), Processed: processed, Err: err})
	return err
}

// processBatch handles the records of one batch concurrently and returns
// them in input order.
func (p *Pipeline) processBatch(ctx context.Context, batch []*core.QuestionRecord, em *emitter, logger *slog.Logger) []*core.QuestionRecord {
	out := make([]*core.QuestionRecord, len(batch))
	var wg sync.WaitGroup

	for i, record := range batch {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, outcome := p.processRecord(ctx, record, em, logger)
			p.metrics.ObserveRecord(outcome)
			out[i] = result
		}
		if err := p.pool.Submit(task); err != nil {
			logger.Warn("worker pool rejected task, processing inline", "id", record.Id, "err", err)
			task()
		}
	}

	wg.Wait()
	return out
}

// processRecord enriches a single record. The input is never mutated; on
// failure the input itself is returned.
func (p *Pipeline) processRecord(ctx context.Context, record *core.QuestionRecord, em *emitter, logger *slog.Logger) (*core.QuestionRecord, Outcome) {
	if record.IsFullyEnriched() {
		em.emit(Event{
			Kind:       EventRecord,
			Message:    fmt.Sprintf("Skipping already processed question with ID %s (has formatted question and embedding)", record.Id),
			QuestionID: record.Id,
		})
		return record, OutcomeSkipped
	}

	if record.RawText == "" {
		return record, OutcomeEmpty
	}

	if core.IsURL(record.RawText) {
		out := record.Clone()
		out.NormalizedText = record.RawText
		out.Embedding = []float32{}
		return out, OutcomeURL
	}

	attempts := p.config.MaxRetries + 1
	reuse := record.NormalizedText != ""
	normalized := record.NormalizedText

	if !reuse {
		err := RetryWithBackoff(ctx, func() error {
			n, err := p.normalizer.NormalizeQuestion(ctx, record.RawText)
			if err != nil {
				return err
			}
			normalized = n
			return nil
		}, attempts, p.config.RetryDelay)
		if err != nil {
			logger.Warn("normalization failed, using raw text", "id", record.Id, "err", err)
			normalized = record.RawText
		}
		if normalized == "" {
			normalized = record.RawText
		}
	}

	var embedding []float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := p.embedder.EmbedText(ctx, normalized)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return fmt.Errorf("%w: empty embedding", ai.ErrEnrichmentUnavailable)
		}
		embedding = v
		return nil
	}, attempts, p.config.RetryDelay)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "embedding failed, leaving question unchanged", "id", record.Id, "err", err)
		return record, OutcomeFailed
	}

	out := record.Clone()
	out.NormalizedText = normalized
	out.Embedding = embedding

	if reuse {
		em.emit(Event{
			Kind:       EventRecord,
			Message:    fmt.Sprintf("Generating new embedding using existing formatted question for ID %s", record.Id),
			QuestionID: record.Id,
		})
		return out, OutcomeReembedded
	}
	em.emit(Event{
		Kind:       EventRecord,
		Message:    fmt.Sprintf("Formatting and generating embedding for ID %s", record.Id),
		QuestionID: record.Id,
	})
	return out, OutcomeEnriched
}

// persistBatch writes every record of a batch concurrently.
func (p *Pipeline) persistBatch(ctx context.Context, batch []*core.QuestionRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, record := range batch {
		g.Go(func() error {
			if err := p.repo.Update(gctx, record); err != nil {
				return fmt.Errorf("failed to update question %s: %w", record.Id, err)
			}
			return nil
		})
	}
	return g.Wait()
}
