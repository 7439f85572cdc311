package enrich

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/questionbank/core"
)

// EventKind classifies a progress event.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventWarning       EventKind = "warning"
	EventBatchStarted  EventKind = "batch_started"
	EventRecord        EventKind = "record"
	EventBatchProgress EventKind = "batch_progress"
	EventCompleted     EventKind = "completed"
	EventFailed        EventKind = "failed"
)

// Terminal reports whether k ends a run.
func (k EventKind) Terminal() bool {
	return k == EventCompleted || k == EventFailed
}

// Event is a single progress report from a pipeline run.
type Event struct {
	Kind       EventKind
	Message    string
	QuestionID core.ID // set for EventRecord
	Processed  int
	Total      int
	Err        error // set for EventFailed
}

// ProgressSink receives progress events. The pipeline never calls a sink
// from more than one goroutine at a time.
type ProgressSink interface {
	Progress(Event)
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Progress(Event) {}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) Progress(ev Event) { f(ev) }

// WriterSink renders events as newline-delimited JSON: {"status": "..."}
// for progress and {"error": "..."} for failures. After the first write
// error all further output is discarded.
type WriterSink struct {
	w      io.Writer
	enc    *json.Encoder
	failed bool
	err    error
}

type statusLine struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewWriterSink creates a sink writing to w. If w has a Flush method it is
// called after every line.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w, enc: json.NewEncoder(w)}
}

func (s *WriterSink) Progress(ev Event) {
	if s.failed {
		return
	}

	line := statusLine{Status: ev.Message}
	if ev.Kind == EventFailed {
		line = statusLine{Error: ev.Message}
	}
	if err := s.enc.Encode(line); err != nil {
		s.failed = true
		s.err = err
		return
	}
	if f, ok := s.w.(interface{ Flush() }); ok {
		f.Flush()
	}
}

// Err returns the write error that stopped output, if any.
func (s *WriterSink) Err() error {
	return s.err
}

// ChannelSink forwards events to a buffered channel. A send that cannot
// complete within the timeout drops the event, except for terminal events,
// which block until received. The consumer must keep reading or drain the
// channel until it is closed.
type ChannelSink struct {
	ch      chan Event
	timeout time.Duration
	dropped atomic.Int64
	once    sync.Once
}

// NewChannelSink creates a sink with the given buffer size and send timeout.
// A zero timeout drops events whenever the buffer is full.
func NewChannelSink(buffer int, timeout time.Duration) *ChannelSink {
	return &ChannelSink{
		ch:      make(chan Event, buffer),
		timeout: timeout,
	}
}

func (s *ChannelSink) Progress(ev Event) {
	if ev.Kind.Terminal() {
		s.ch <- ev
		return
	}

	select {
	case s.ch <- ev:
		return
	default:
	}
	if s.timeout <= 0 {
		s.dropped.Add(1)
		return
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case s.ch <- ev:
	case <-timer.C:
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the channel.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Close closes the channel. Progress must not be called afterwards.
func (s *ChannelSink) Close() {
	s.once.Do(func() { close(s.ch) })
}

// Dropped returns the number of events that were discarded.
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// emitter serializes sink calls coming from concurrent workers.
type emitter struct {
	mu   sync.Mutex
	sink ProgressSink
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink.Progress(ev)
}
