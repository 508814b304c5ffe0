// Package engine drives one full AI interaction: it consumes a parsed
// definition, the tool registry, and the conversation state store, builds a
// provider request, resolves any requested tool calls, resubmits results,
// and repeats until a final answer or a failure condition is reached.
//
// Concurrency: many Run invocations may interleave. A run suspends at the
// provider round trip and at each tool invocation; runs for different thread
// ids share only the registry (read-only during a run) and the store (keyed
// access). Two concurrent runs against the same thread id are a caller
// error; the stored outcome is last-writer-wins.
package engine

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/convstore"
	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/filestore"
	"github.com/promptfile/promptfile/tooling/registry"
)

// DefaultMaxToolRounds caps tool-invocation rounds per run, protecting
// against a provider that never stops requesting tools.
const DefaultMaxToolRounds = 10

// Params wires an Engine. Definitions, Tools, Threads, Attachments,
// Provider, and DefaultModel are required.
type Params struct {
	Definitions *definition.Loader
	Tools       *registry.Registry
	Threads     convstore.Store
	Attachments *attachments.Tracker
	Provider    Provider

	// Files feeds the file_contents template variable for caller-supplied
	// uploads. Optional; without it file ids pass through untouched.
	Files filestore.Store

	// DefaultModel applies when a definition has no Model section.
	DefaultModel string

	// MaxToolRounds defaults to DefaultMaxToolRounds when <= 0.
	MaxToolRounds int

	Events EventSink
	Logger *slog.Logger
}

type Engine struct {
	definitions *definition.Loader
	tools       *registry.Registry
	threads     convstore.Store
	tracker     *attachments.Tracker
	files       filestore.Store
	provider    Provider
	events      EventSink
	logger      *slog.Logger

	defaultModel  string
	maxToolRounds int
}

func New(params Params) (*Engine, error) {
	if params.Definitions == nil {
		return nil, errors.New("definition loader is required")
	}
	if params.Tools == nil {
		return nil, errors.New("tool registry is required")
	}
	if params.Threads == nil {
		return nil, errors.New("conversation state store is required")
	}
	if params.Attachments == nil {
		return nil, errors.New("attachment tracker is required")
	}
	if params.Provider == nil {
		return nil, errors.New("provider is required")
	}
	if strings.TrimSpace(params.DefaultModel) == "" {
		return nil, errors.New("default model is required")
	}

	events := params.Events
	if events == nil {
		events = noopEventSink{}
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxToolRounds := params.MaxToolRounds
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}

	return &Engine{
		definitions:   params.Definitions,
		tools:         params.Tools,
		threads:       params.Threads,
		tracker:       params.Attachments,
		files:         params.Files,
		provider:      params.Provider,
		events:        events,
		logger:        logger,
		defaultModel:  params.DefaultModel,
		maxToolRounds: maxToolRounds,
	}, nil
}
