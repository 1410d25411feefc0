// Package progress provides ProgressReporter sinks for the backup engine.
// Rendering (bars, dashboards) belongs to consumers; these adapters only
// move events out of the workers' way.
package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/domain/model"
)

// SlogReporter logs every progress event through a structured logger.
// Delivery is buffered and drained by a single goroutine so concurrently
// reporting workers never block on the log sink.
type SlogReporter struct {
	logger *slog.Logger
	events chan model.ProgressEvent

	// mu serializes sends against Close so an event can never hit a
	// closed channel.
	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

const defaultBuffer = 256

// NewSlogReporter starts a reporter draining into logger.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &SlogReporter{
		logger: logger,
		events: make(chan model.ProgressEvent, defaultBuffer),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

// Report queues the event for logging. When the buffer is full it blocks
// until the drain goroutine catches up, so per-caller event order is
// preserved and nothing is dropped. Reporting after Close logs the event
// synchronously.
func (r *SlogReporter) Report(event model.ProgressEvent) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log(event)
		return
	}
	// The drain goroutine keeps consuming, so a full buffer only blocks
	// briefly. Close cannot close the channel mid-send: it waits on mu.
	r.events <- event
	r.mu.Unlock()
}

// Close flushes buffered events and stops the drain goroutine.
func (r *SlogReporter) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
		<-r.done
	})
}

func (r *SlogReporter) drain() {
	defer close(r.done)
	for event := range r.events {
		r.log(event)
	}
}

func (r *SlogReporter) log(event model.ProgressEvent) {
	ctx := context.Background()
	attrs := []any{
		"robot", event.Label,
		"address", event.Address,
		"attempt", event.Attempt,
	}
	if event.Err != "" {
		attrs = append(attrs, "error", event.Err)
	}

	switch event.Kind {
	case model.ProgressAttemptFailed, model.ProgressFailed:
		r.logger.WarnContext(ctx, string(event.Kind), attrs...)
	default:
		r.logger.InfoContext(ctx, string(event.Kind), attrs...)
	}
}

// Fanout delivers each event to every wrapped reporter in order.
type Fanout []core.ProgressReporter

// Report implements core.ProgressReporter.
func (f Fanout) Report(event model.ProgressEvent) {
	for _, r := range f {
		if r != nil {
			r.Report(event)
		}
	}
}

// Nop discards all events.
type Nop struct{}

// Report implements core.ProgressReporter.
func (Nop) Report(model.ProgressEvent) {}

var (
	_ core.ProgressReporter = (*SlogReporter)(nil)
	_ core.ProgressReporter = (Fanout)(nil)
	_ core.ProgressReporter = Nop{}
)
