package enrich

import (
	"sync"
	"time"
)

// ProgressTracker tracks how many records a run has processed and how fast.
type ProgressTracker struct {
	total     int
	current   int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a tracker for total records.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: total}
}

// Start begins tracking and resets the counter.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
}

// Increment adds delta processed records, capped at total.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(p.current+delta, p.total)
}

// Finish marks every record as processed.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = p.total
}

// Current returns the number of processed records.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Remaining returns the number of records not yet processed.
func (p *ProgressTracker) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total - p.current
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// Rate returns processed records per second.
func (p *ProgressTracker) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	elapsed := time.Since(p.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.current) / elapsed
}
