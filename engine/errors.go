package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal run failure for callers that need more than a
// message, e.g. HTTP status mapping.
type Kind string

const (
	KindUnknownPrompt    Kind = "unknown_prompt"
	KindDefinitionParse  Kind = "definition_parse"
	KindUnknownTool      Kind = "unknown_tool"
	KindToolExecution    Kind = "tool_execution"
	KindToolLoopExceeded Kind = "tool_loop_exceeded"
	KindProviderFailure  Kind = "provider_failure"
	KindStateCommit      Kind = "state_commit"
	KindCancelled        Kind = "cancelled"
	KindInvalidInput     Kind = "invalid_input"
)

// Error is the structured failure returned for every fatal run condition.
// A failed run never commits conversation state and never returns a partial
// result.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the failure kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}
