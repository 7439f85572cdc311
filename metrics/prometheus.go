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

// Package metrics exports enrichment and search metrics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/questionbank/ai"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/search"
	"github.com/poiesic/questionbank/storage"
)

const namespace = "questionbank"

// Exporter collects pipeline and search observations.
// It implements both enrich.Metrics and search.Metrics.
type Exporter struct {
	registry *prometheus.Registry

	// Enrichment metrics
	recordsProcessed *prometheus.CounterVec
	batchSize        prometheus.Histogram
	batchLatency     prometheus.Histogram
	runs             *prometheus.CounterVec
	runLatency       prometheus.Histogram
	lastRunRecords   prometheus.Gauge

	// Search metrics
	searches      *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	searchResults *prometheus.HistogramVec
}

var (
	_ enrich.Metrics = (*Exporter)(nil)
	_ search.Metrics = (*Exporter)(nil)
)

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// IncludeRuntime registers the Go runtime and process collectors.
	IncludeRuntime bool
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		IncludeRuntime: true,
	}
}

// NewExporter creates and registers all collectors.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.recordsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "records_total",
			Help:      "Records handled by the enrichment pipeline, by outcome",
		},
		[]string{"outcome"},
	)

	e.batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "batch_size",
			Help:      "Number of records per enrichment batch",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		},
	)

	e.batchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing and persisting one batch",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "runs_total",
			Help:      "Enrichment runs, by status",
		},
		[]string{"status"},
	)

	e.runLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full enrichment run",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.lastRunRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "last_run_records",
			Help:      "Records processed by the most recent enrichment run",
		},
	)

	e.searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests, by path and status",
		},
		[]string{"path", "status"},
	)

	e.searchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"path"},
	)

	e.searchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of candidates returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"path"},
	)

	registry.MustRegister(
		e.recordsProcessed,
		e.batchSize,
		e.batchLatency,
		e.runs,
		e.runLatency,
		e.lastRunRecords,
		e.searches,
		e.searchLatency,
		e.searchResults,
	)
	if cfg.IncludeRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// ObserveRecord counts one record outcome.
func (e *Exporter) ObserveRecord(outcome enrich.Outcome) {
	e.recordsProcessed.WithLabelValues(string(outcome)).Inc()
}

// ObserveBatch records the size and duration of one batch.
func (e *Exporter) ObserveBatch(size int, duration time.Duration) {
	e.batchSize.Observe(float64(size))
	e.batchLatency.Observe(duration.Seconds())
}

// ObserveRun records the outcome of a full pipeline run.
func (e *Exporter) ObserveRun(success bool, processed int, duration time.Duration) {
	e.runs.WithLabelValues(status(success)).Inc()
	e.runLatency.Observe(duration.Seconds())
	e.lastRunRecords.Set(float64(processed))
}

// ObserveSearch records one search request.
func (e *Exporter) ObserveSearch(path string, results int, duration time.Duration, err error) {
	e.searches.WithLabelValues(path, errorStatus(err)).Inc()
	e.searchLatency.WithLabelValues(path).Observe(duration.Seconds())
	if err == nil {
		e.searchResults.WithLabelValues(path).Observe(float64(results))
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// errorStatus labels an error by the subsystem that caused it.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, storage.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ai.ErrEnrichmentUnavailable):
		return "enrichment_unavailable"
	default:
		return "error"
	}
}
