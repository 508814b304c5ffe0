// Package convstore defines the conversation-continuity contract: a keyed
// store mapping an opaque thread identifier to the last provider response
// identifier and the prompt name in use. The core never persists transcripts;
// continuity is delegated to the provider through the stored identifier.
package convstore

import (
	"context"
	"errors"
	"time"
)

// ErrThreadNotFound is returned by Get for an unknown thread identifier.
var ErrThreadNotFound = errors.New("thread not found")

// State is the continuity record for one thread. LastResponseID always
// originates from the most recent successful provider round for the thread;
// it is never fabricated locally.
type State struct {
	ThreadID       string    `json:"thread_id"`
	LastResponseID string    `json:"last_response_id"`
	PromptName     string    `json:"prompt_name"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is the conversation persistence boundary. Put must be atomic per
// thread id: a Put strictly after another's completion wins, and Puts for
// different keys never interfere. Two concurrent runs against the same
// thread id are a caller error; the outcome is last-writer-wins.
type Store interface {
	Get(ctx context.Context, threadID string) (State, error)
	Put(ctx context.Context, state State) error
}
