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

package questionbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/ai/openai"
	"github.com/poiesic/questionbank/config"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/ingestion"
	"github.com/poiesic/questionbank/metrics"
	"github.com/poiesic/questionbank/search"
	"github.com/poiesic/questionbank/storage"
	"github.com/poiesic/questionbank/storage/badger"
	"github.com/poiesic/questionbank/storage/postgres"
	"github.com/poiesic/questionbank/storage/sqlite"
	"github.com/poiesic/questionbank/storage/sqlstore"
)

// Database bundles a question store and an AI provider and builds the
// components that operate on them.
type Database struct {
	repo     storage.QuestionRepository
	provider ai.AIProvider
	config   *config.Config
	metrics  *metrics.Exporter
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	provider   ai.AIProvider
	repository storage.QuestionRepository
	metrics    *metrics.Exporter
	logger     *slog.Logger
}

// WithAIProvider uses provider instead of building one from the ai config section.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithRepository uses repo instead of opening the configured store.
func WithRepository(repo storage.QuestionRepository) DatabaseOption {
	return func(o *databaseOptions) {
		o.repository = repo
	}
}

// WithMetrics attaches a metrics exporter to every pipeline and searcher.
func WithMetrics(exporter *metrics.Exporter) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = exporter
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the configured store and AI provider.
// A nil cfg uses config.Default().
func NewDatabase(ctx context.Context, cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	repo := options.repository
	if repo == nil {
		var err error
		repo, err = OpenRepository(ctx, cfg.Storage, options.logger)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(cfg.AIServiceConfig())
		if err != nil {
			repo.Close()
			return nil, err
		}
	}

	return &Database{
		repo:     repo,
		provider: provider,
		config:   cfg,
		metrics:  options.metrics,
		logger:   options.logger,
	}, nil
}

// OpenRepository opens the store selected by cfg.Type.
func OpenRepository(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.QuestionRepository, error) {
	switch cfg.Type {
	case config.StoreBadger, "":
		return badger.NewRepository(cfg.Path, logger)
	case config.StoreSQLite:
		return sqlite.Open(ctx, cfg.Path, sqlstore.WithLogger(logger))
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.DSN, sqlstore.WithLogger(logger))
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", config.ErrInvalidConfig, cfg.Type)
	}
}

// Close releases the AI provider and the store.
func (db *Database) Close() error {
	var errs []error
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing question repository", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Repository returns the underlying question store.
func (db *Database) Repository() storage.QuestionRepository {
	return db.repo
}

// Config returns the configuration the database was opened with.
func (db *Database) Config() *config.Config {
	return db.config
}

// NewPipeline builds an enrichment pipeline from the enrichment config section.
// Callers must Release the pipeline when done.
func (db *Database) NewPipeline(opts ...enrich.Option) (*enrich.Pipeline, error) {
	base := []enrich.Option{enrich.WithLogger(db.logger)}
	if db.metrics != nil {
		base = append(base, enrich.WithMetrics(db.metrics))
	}
	return enrich.NewPipeline(db.repo, db.provider, db.config.EnrichConfig(), append(base, opts...)...)
}

// NewSearcher builds a searcher from the search config section.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithLogger(db.logger),
		search.WithTopK(db.config.Search.TopK),
		search.WithPageSize(db.config.Search.PageSize),
		search.WithSemanticOnlyMatches(db.config.Search.SemanticOnlyMatchesOrDefault()),
	}
	if db.metrics != nil {
		base = append(base, search.WithMetrics(db.metrics))
	}
	return search.NewSearcher(db.repo, db.provider, append(base, opts...)...)
}

// NewImporter builds a CSV importer writing to the store.
func (db *Database) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	return ingestion.NewImporter(db.repo, append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)...)
}

// NewExporter builds a CSV exporter reading from the store.
func (db *Database) NewExporter(opts ...ingestion.Option) (*ingestion.Exporter, error) {
	return ingestion.NewExporter(db.repo, append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)...)
}
