// Package events provides EventSink implementations for registry
// notifications: an in-memory recorder, a blob-backed journal, a log sink and
// a fan-out combinator.
package events

import (
	"context"
	"errors"
	"sync"

	"kittycore/internal/core"
	"kittycore/pkg/domain"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Publish appends event.
func (r *Recorder) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, cloneEvent(event))
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	for i, e := range r.events {
		out[i] = cloneEvent(e)
	}
	return out
}

// Len reports the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// LogSink writes each event to a logger at info level.
type LogSink struct {
	logger core.Logger
}

// NewLogSink wraps logger; a nil logger yields a sink that drops events.
func NewLogSink(logger core.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs event.
func (s *LogSink) Publish(_ context.Context, event domain.Event) error {
	if s.logger == nil {
		return nil
	}
	kv := []any{"kind", event.Kind, "block", event.Block, "who", event.Who, "kitty_id", event.KittyID}
	if event.Counterparty != "" {
		kv = append(kv, "counterparty", event.Counterparty)
	}
	if event.ParentA != 0 || event.ParentB != 0 {
		kv = append(kv, "parent_a", event.ParentA, "parent_b", event.ParentB)
	}
	if event.Price != nil {
		kv = append(kv, "price", event.Price.String())
	}
	s.logger.Info("registry event", kv...)
	return nil
}

// Fanout publishes to every sink in order. All sinks are attempted; their
// errors are joined.
type Fanout []domain.EventSink

// Publish delivers event to each sink.
func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cloneEvent(e domain.Event) domain.Event {
	if e.Price != nil {
		p := *e.Price
		e.Price = &p
	}
	return e
}
