package engine

import (
	"context"
	"errors"
	"fmt"
)

// ToolSpec is the wire form of one tool in a provider request. Builtins are
// a bare provider-native type tag; custom tools are function declarations
// carrying the declared argument schema.
type ToolSpec struct {
	Type        string         `json:"type"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Request is the assembled provider-boundary request for one round. Exactly
// one of Input or ToolResults is populated: Input on the opening round,
// ToolResults on resubmission rounds referencing the same response chain via
// PreviousResponseID.
type Request struct {
	Instructions       string
	Model              string
	Tools              []ToolSpec
	Input              string
	ToolResults        []ToolResult
	PreviousResponseID string
	FileIDs            []string
}

// ToolCall is one provider-requested invocation within a round's batch.
type ToolCall struct {
	CallID string
	Name   string
	// RawArguments is the argument payload exactly as received; parsing and
	// validation happen against the registered descriptor's schema.
	RawArguments string
}

// ToolResult is the normalized outcome of one tool call, reported back to
// the provider in request order.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// GeneratedFile references provider-generated content, e.g. a file written
// by the code-execution sandbox.
type GeneratedFile struct {
	FileID      string
	ContainerID string
	Filename    string
	MimeType    string
}

// Response is one provider reply. Exactly one of Text or ToolCalls is
// populated; ID identifies the reply for continuation.
type Response struct {
	ID             string
	Text           string
	ToolCalls      []ToolCall
	GeneratedFiles []GeneratedFile
}

// Provider is the external AI boundary. Send suspends on the network round
// trip and must honor ctx cancellation and deadlines.
type Provider interface {
	Send(ctx context.Context, request Request) (Response, error)
}

// TransportError classifies a provider-boundary failure as retryable
// (timeout, transient network, rate limiting) or fatal (authentication,
// quota, malformed request).
type TransportError struct {
	Status    int
	Retryable bool
	Message   string
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider transport: status=%d retryable=%t: %s", e.Status, e.Retryable, e.Message)
	}
	return fmt.Sprintf("provider transport: retryable=%t: %s", e.Retryable, e.Message)
}

// IsRetryableTransport reports whether err is a transport failure worth
// retrying. Context cancellation is never retryable.
func IsRetryableTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}
	return false
}
