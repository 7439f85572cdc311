package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/ai/mock"
	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/storage"
	"github.com/poiesic/questionbank/storage/badger"
)

func testConfig() *Config {
	return &Config{
		BatchSize:  5,
		BatchDelay: 0,
		FetchLimit: 1000,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
}

func newTestRepo(t *testing.T, records ...*core.QuestionRecord) storage.QuestionRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	if len(records) > 0 {
		_, err = repo.AddQuestions(context.Background(), records...)
		require.NoError(t, err)
	}
	return repo
}

func newTestPipeline(t *testing.T, repo storage.QuestionRepository, provider ai.AIProvider, cfg *Config, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(repo, provider, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

// recordingSink collects events; the pipeline serializes calls so no lock is needed.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Progress(ev Event) { s.events = append(s.events, ev) }

func (s *recordingSink) messages(kind EventKind) []string {
	var out []string
	for _, ev := range s.events {
		if ev.Kind == kind {
			out = append(out, ev.Message)
		}
	}
	return out
}

func questions(n int) []*core.QuestionRecord {
	records := make([]*core.QuestionRecord, n)
	for i := range records {
		records[i] = &core.QuestionRecord{
			Id:      core.ID(fmt.Sprintf("q%02d", i)),
			RawText: fmt.Sprintf("Tell me how you would approach problem %d", i),
		}
	}
	return records
}

func TestNewPipeline_Validation(t *testing.T) {
	repo := newTestRepo(t)

	_, err := NewPipeline(nil, mock.NewMockProvider(), nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(repo, mock.NewMockProvider(), &Config{BatchSize: 0, FetchLimit: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPipeline(repo, mock.NewMockProvider(), &Config{BatchSize: 5, FetchLimit: storage.MaxPageSize + 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	p, err := NewPipeline(repo, mock.NewMockProvider(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), p.config)
	p.Release()
}

func TestRun_EnrichesRawQuestions(t *testing.T) {
	repo := &countingRepo{QuestionRepository: newTestRepo(t, questions(12)...)}
	provider := mock.NewMockProvider()
	p := newTestPipeline(t, repo, provider, testConfig())
	sink := &recordingSink{}

	results, err := p.Run(context.Background(), sink)
	require.NoError(t, err)
	require.Len(t, results, 12)

	for _, r := range results {
		assert.True(t, r.IsFullyEnriched(), "record %s", r.Id)
		assert.Equal(t, r.RawText+"?", r.NormalizedText)
		assert.Equal(t, mock.DeterministicVector(r.NormalizedText, mock.DefaultDimensions), r.Embedding)

		stored, err := repo.GetQuestion(context.Background(), r.Id)
		require.NoError(t, err)
		assert.Equal(t, r.NormalizedText, stored.NormalizedText)
		assert.Equal(t, r.Embedding, stored.Embedding)
	}

	assert.Equal(t, 12, provider.GetMockNormalizer().CallCount())
	assert.Equal(t, 12, provider.GetMockEmbedder().CallCount())

	assert.Equal(t, []string{"Found 12 questions to process"}, sink.messages(EventStarted))
	assert.Equal(t, []string{
		"Processing batch 1/3 (1-5 of 12 questions)",
		"Processing batch 2/3 (6-10 of 12 questions)",
		"Processing batch 3/3 (11-12 of 12 questions)",
	}, sink.messages(EventBatchStarted))
	assert.Equal(t, []string{
		"Progress: 5/12 questions processed (7 remaining)",
		"Progress: 10/12 questions processed (2 remaining)",
		"Progress: 12/12 questions processed (0 remaining)",
	}, sink.messages(EventBatchProgress))
	assert.Equal(t, []string{"All questions processed successfully!"}, sink.messages(EventCompleted))
	assert.Contains(t, sink.messages(EventRecord), "Formatting and generating embedding for ID q03")
	assert.Empty(t, sink.messages(EventFailed))

	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventCompleted, last.Kind)

	counts := repo.updateCounts()
	require.Len(t, counts, 12)
	for _, q := range questions(12) {
		assert.Equal(t, 1, counts[q.Id], "updates for %s", q.Id)
	}
}

func TestRun_RecordHandling(t *testing.T) {
	existing := []float32{0.9, 0.1}
	repo := newTestRepo(t,
		&core.QuestionRecord{Id: "done", RawText: "raw", NormalizedText: "What is X?", Embedding: existing},
		&core.QuestionRecord{Id: "url", RawText: "https://leetcode.com/problems/two-sum"},
		&core.QuestionRecord{Id: "reuse", RawText: "explain Y in detail", NormalizedText: "What is Y?"},
		&core.QuestionRecord{Id: "fresh", RawText: "explain Z"},
	)
	provider := mock.NewMockProvider()
	p := newTestPipeline(t, repo, provider, testConfig())
	sink := &recordingSink{}

	results, err := p.Run(context.Background(), sink)
	require.NoError(t, err)

	byID := map[core.ID]*core.QuestionRecord{}
	for _, r := range results {
		byID[r.Id] = r
	}

	assert.Equal(t, existing, byID["done"].Embedding)
	assert.Equal(t, "What is X?", byID["done"].NormalizedText)

	assert.Equal(t, "https://leetcode.com/problems/two-sum", byID["url"].NormalizedText)
	require.NotNil(t, byID["url"].Embedding)
	assert.Empty(t, byID["url"].Embedding)

	assert.Equal(t, "What is Y?", byID["reuse"].NormalizedText)
	assert.Equal(t, mock.DeterministicVector("What is Y?", mock.DefaultDimensions), byID["reuse"].Embedding)

	assert.Equal(t, "explain Z?", byID["fresh"].NormalizedText)

	// Only "fresh" needed normalization; "reuse" and "fresh" needed embeddings.
	assert.Equal(t, 1, provider.GetMockNormalizer().CallCount())
	assert.ElementsMatch(t, []string{"What is Y?", "explain Z?"}, provider.GetMockEmbedder().Texts())

	records := sink.messages(EventRecord)
	assert.Contains(t, records, "Skipping already processed question with ID done (has formatted question and embedding)")
	assert.Contains(t, records, "Generating new embedding using existing formatted question for ID reuse")
	assert.Contains(t, records, "Formatting and generating embedding for ID fresh")

	stored, err := repo.GetQuestion(context.Background(), "url")
	require.NoError(t, err)
	require.NotNil(t, stored.Embedding)
	assert.Empty(t, stored.Embedding)
}

func TestRun_Idempotent(t *testing.T) {
	repo := newTestRepo(t, questions(7)...)
	provider := mock.NewMockProvider()
	p := newTestPipeline(t, repo, provider, testConfig())

	first, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	provider.GetMockEmbedder().Reset()
	provider.GetMockNormalizer().Reset()

	second, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, provider.GetMockEmbedder().CallCount())
	assert.Zero(t, provider.GetMockNormalizer().CallCount())
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Embedding, second[i].Embedding)
		assert.Equal(t, first[i].NormalizedText, second[i].NormalizedText)
	}
}

func TestRun_NormalizeFailureFallsBackToRaw(t *testing.T) {
	repo := newTestRepo(t, &core.QuestionRecord{Id: "q1", RawText: "raw question text"})
	normalizer := mock.NewMockNormalizer()
	normalizer.NormalizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", ai.ErrEnrichmentUnavailable
	}
	embedder := mock.NewMockEmbedder()
	p := newTestPipeline(t, repo, mock.NewMockProviderWithServices(embedder, normalizer), testConfig())

	results, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "raw question text", results[0].NormalizedText)
	assert.Equal(t, []string{"raw question text"}, embedder.Texts())
	assert.Equal(t, 2, normalizer.CallCount(), "one retry")
}

func TestRun_EmbedFailureLeavesRecordUnchanged(t *testing.T) {
	repo := newTestRepo(t,
		&core.QuestionRecord{Id: "bad", RawText: "fails to embed"},
		&core.QuestionRecord{Id: "good", RawText: "embeds fine"},
	)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.HasPrefix(text, "fails") {
			return nil, ai.ErrEnrichmentUnavailable
		}
		return []float32{1, 0}, nil
	}
	p := newTestPipeline(t, repo, mock.NewMockProviderWithServices(embedder, mock.NewMockNormalizer()), testConfig())
	sink := &recordingSink{}

	_, err := p.Run(context.Background(), sink)
	require.NoError(t, err)

	bad, err := repo.GetQuestion(context.Background(), "bad")
	require.NoError(t, err)
	assert.Empty(t, bad.NormalizedText, "no partial mutation")
	assert.Nil(t, bad.Embedding)

	good, err := repo.GetQuestion(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, good.Embedding)

	assert.Equal(t, []string{"All questions processed successfully!"}, sink.messages(EventCompleted))
}

func TestRun_EmptyRawTextPassesThrough(t *testing.T) {
	provider := mock.NewMockProvider()
	fake := &stubRepo{records: []*core.QuestionRecord{{Id: "empty"}}}
	p := newTestPipeline(t, fake, provider, testConfig())

	results, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].NormalizedText)
	assert.Nil(t, results[0].Embedding)
	assert.Zero(t, provider.GetMockEmbedder().CallCount())
	assert.Equal(t, 1, fake.updates(), "pass-through records are persisted too")
}

func TestRun_EmptyStore(t *testing.T) {
	repo := newTestRepo(t)
	p := newTestPipeline(t, repo, mock.NewMockProvider(), testConfig())
	sink := &recordingSink{}

	results, err := p.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, []string{"Found 0 questions to process"}, sink.messages(EventStarted))
	assert.Equal(t, []string{"All questions processed successfully!"}, sink.messages(EventCompleted))
}

func TestRun_FetchLimitWarning(t *testing.T) {
	repo := newTestRepo(t, questions(8)...)
	cfg := testConfig()
	cfg.FetchLimit = 3
	p := newTestPipeline(t, repo, mock.NewMockProvider(), cfg)
	sink := &recordingSink{}

	results, err := p.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []string{"Processing the first 3 of 8 questions (fetch limit 3)"}, sink.messages(EventWarning))
}

func TestRun_LoadFailure(t *testing.T) {
	fake := &stubRepo{fetchErr: fmt.Errorf("connection refused: %w", storage.ErrStoreUnavailable)}
	p := newTestPipeline(t, fake, mock.NewMockProvider(), testConfig())
	sink := &recordingSink{}

	_, err := p.Run(context.Background(), sink)
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)

	require.NotEmpty(t, sink.events)
	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventFailed, last.Kind)
	assert.ErrorIs(t, last.Err, storage.ErrStoreUnavailable)
	assert.Empty(t, sink.messages(EventCompleted))
}

func TestRun_PersistFailure(t *testing.T) {
	fake := &stubRepo{records: questions(3), updateErr: fmt.Errorf("write: %w", storage.ErrStoreUnavailable)}
	p := newTestPipeline(t, fake, mock.NewMockProvider(), testConfig())
	sink := &recordingSink{}

	_, err := p.Run(context.Background(), sink)
	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	assert.Len(t, sink.messages(EventFailed), 1)
	assert.Empty(t, sink.messages(EventBatchProgress))
}

func TestRun_BatchDelay(t *testing.T) {
	repo := newTestRepo(t, questions(3)...)
	cfg := testConfig()
	cfg.BatchSize = 1
	cfg.BatchDelay = 20 * time.Millisecond
	p := newTestPipeline(t, repo, mock.NewMockProvider(), cfg)

	start := time.Now()
	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	// Two pauses between three batches, none after the last.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	repo := newTestRepo(t, questions(4)...)
	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.BatchDelay = time.Hour
	p := newTestPipeline(t, repo, mock.NewMockProvider(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	sink := FuncSink(func(ev Event) {
		if ev.Kind == EventBatchProgress {
			cancel()
		}
	})

	_, err := p.Run(ctx, sink)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	repo := newTestRepo(t, questions(10)...)
	var mu sync.Mutex
	inFlight, peak := 0, 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return []float32{1}, nil
	}
	cfg := testConfig()
	cfg.BatchSize = 3
	p := newTestPipeline(t, repo, mock.NewMockProviderWithServices(embedder, mock.NewMockNormalizer()), cfg)

	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 3)
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[Outcome]int
	batches  int
	runs     []bool
}

func (m *countingMetrics) ObserveRecord(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[Outcome]int{}
	}
	m.outcomes[o]++
}

func (m *countingMetrics) ObserveBatch(int, time.Duration) { m.batches++ }

func (m *countingMetrics) ObserveRun(success bool, _ int, _ time.Duration) {
	m.runs = append(m.runs, success)
}

func TestRun_Metrics(t *testing.T) {
	repo := newTestRepo(t,
		&core.QuestionRecord{Id: "a", RawText: "https://example.com/a"},
		&core.QuestionRecord{Id: "b", RawText: "question b"},
	)
	metrics := &countingMetrics{}
	p := newTestPipeline(t, repo, mock.NewMockProvider(), testConfig(), WithMetrics(metrics))

	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.outcomes[OutcomeURL])
	assert.Equal(t, 1, metrics.outcomes[OutcomeEnriched])
	assert.Equal(t, 1, metrics.batches)
	assert.Equal(t, []bool{true}, metrics.runs)
}

// stubRepo is a QuestionRepository with injectable failures.
type stubRepo struct {
	mu        sync.Mutex
	records   []*core.QuestionRecord
	fetchErr  error
	updateErr error
	updated   int
}

func (s *stubRepo) Count(ctx context.Context) (int, error) { return len(s.records), nil }

func (s *stubRepo) ScanPage(ctx context.Context, offset, limit int) ([]*core.QuestionRecord, error) {
	return s.FetchBounded(ctx, limit)
}

func (s *stubRepo) FetchBounded(ctx context.Context, limit int) ([]*core.QuestionRecord, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.records[:min(limit, len(s.records))], nil
}

func (s *stubRepo) Update(ctx context.Context, record *core.QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated++
	return nil
}

func (s *stubRepo) updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

func (s *stubRepo) AddQuestions(ctx context.Context, records ...*core.QuestionRecord) ([]*core.QuestionRecord, error) {
	return nil, errors.New("not supported")
}

func (s *stubRepo) GetQuestion(ctx context.Context, id core.ID) (*core.QuestionRecord, error) {
	return nil, storage.ErrNotFound
}

func (s *stubRepo) Close() error { return nil }

// countingRepo records how many times each id is written through Update.
type countingRepo struct {
	storage.QuestionRepository

	mu     sync.Mutex
	counts map[core.ID]int
}

func (c *countingRepo) Update(ctx context.Context, record *core.QuestionRecord) error {
	c.mu.Lock()
	if c.counts == nil {
		c.counts = make(map[core.ID]int)
	}
	c.counts[record.Id]++
	c.mu.Unlock()
	return c.QuestionRepository.Update(ctx, record)
}

func (c *countingRepo) updateCounts() map[core.ID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[core.ID]int, len(c.counts))
	for id, n := range c.counts {
		out[id] = n
	}
	return out
}
