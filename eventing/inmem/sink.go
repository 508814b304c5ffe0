// Package inmem provides a memory-backed event sink, used by tests and by
// the server to expose recent run activity.
package inmem

import (
	"context"
	"sync"

	"github.com/promptfile/promptfile/engine"
)

// Sink captures engine events in memory and exposes deterministic snapshots.
type Sink struct {
	mu     sync.RWMutex
	events []engine.Event
}

var _ engine.EventSink = (*Sink)(nil)

func New() *Sink {
	return &Sink{events: make([]engine.Event, 0)}
}

func (s *Sink) Publish(ctx context.Context, event engine.Event) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err := engine.ValidateEvent(event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, cloneEvent(event))
	return nil
}

// Events returns a deep-cloned snapshot in publish order.
func (s *Sink) Events() []engine.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.Event, len(s.events))
	for i := range s.events {
		out[i] = cloneEvent(s.events[i])
	}
	return out
}

// ForThread returns the snapshot filtered to one thread id.
func (s *Sink) ForThread(threadID string) []engine.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []engine.Event
	for i := range s.events {
		if s.events[i].ThreadID == threadID {
			out = append(out, cloneEvent(s.events[i]))
		}
	}
	return out
}

func cloneEvent(in engine.Event) engine.Event {
	out := in
	if in.ToolResult != nil {
		result := *in.ToolResult
		out.ToolResult = &result
	}
	return out
}
