package enrich

import "time"

// Outcome describes what happened to a single record during a run.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeEmpty      Outcome = "empty"
	OutcomeURL        Outcome = "url"
	OutcomeEnriched   Outcome = "enriched"
	OutcomeReembedded Outcome = "reembedded"
	OutcomeFailed     Outcome = "failed"
)

// Metrics receives pipeline measurements.
type Metrics interface {
	ObserveRecord(outcome Outcome)
	ObserveBatch(size int, duration time.Duration)
	ObserveRun(success bool, processed int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRecord(Outcome)               {}
func (noopMetrics) ObserveBatch(int, time.Duration)     {}
func (noopMetrics) ObserveRun(bool, int, time.Duration) {}
