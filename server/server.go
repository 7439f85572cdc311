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

// Package server provides the HTTP API for questionbank.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/questionbank/config"
	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/search"
)

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrEnricherRequired is returned when an enrichment pipeline is not provided.
	ErrEnricherRequired = errors.New("enrichment pipeline required")
)

// Searcher answers retrieval queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]*core.SearchCandidate, error)
}

// Enricher runs the batch enrichment pipeline.
type Enricher interface {
	Run(ctx context.Context, sink enrich.ProgressSink) ([]*core.QuestionRecord, error)
}

const (
	// progressBuffer is the number of progress events queued for a streaming client.
	progressBuffer = 64

	// progressSendTimeout bounds how long the pipeline waits on a slow client
	// for a non-terminal event.
	progressSendTimeout = 5 * time.Second
)

// Server is the HTTP server for the questionbank API.
type Server struct {
	searcher Searcher
	enricher Enricher
	metrics  http.Handler
	config   config.ServerConfig
	logger   *slog.Logger
	router   chi.Router
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(searcher Searcher, enricher Enricher, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}

	s := &Server{
		searcher: searcher,
		enricher: enricher,
		config:   cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.With(middleware.Compress(5)).Get("/api/questions", s.handleQuestions)
	r.Get("/api/process", s.handleProcess)
	r.Post("/api/process", s.handleProcess)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
