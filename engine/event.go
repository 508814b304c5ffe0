package engine

import (
	"context"
	"errors"
	"fmt"
)

// EventType is emitted by the engine for observability.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventToolResult   EventType = "tool_result"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"
)

var knownEventTypes = map[EventType]struct{}{
	EventRunStarted:   {},
	EventToolResult:   {},
	EventRunCompleted: {},
	EventRunFailed:    {},
}

// Event is intentionally compact so sinks can map it to logs or streams.
type Event struct {
	ThreadID    string      `json:"thread_id"`
	PromptName  string      `json:"prompt_name"`
	Round       int         `json:"round"`
	Type        EventType   `json:"type"`
	ToolResult  *ToolResult `json:"tool_result,omitempty"`
	Description string      `json:"description,omitempty"`
}

// ValidateEvent rejects structurally invalid events before a sink stores them.
func ValidateEvent(event Event) error {
	if event.ThreadID == "" {
		return errors.New("event thread id is empty")
	}
	if _, ok := knownEventTypes[event.Type]; !ok {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.Type == EventToolResult && event.ToolResult == nil {
		return errors.New("tool_result event carries no result")
	}
	return nil
}

// EventSink receives engine events. Publish failures are logged, never
// propagated into run outcomes.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

type noopEventSink struct{}

func (noopEventSink) Publish(context.Context, Event) error { return nil }
