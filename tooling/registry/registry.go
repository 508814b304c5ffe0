// Package registry binds declared tool names to executable capabilities and
// their argument schemas. Builtin tools carry a provider-native wire type and
// no local invoker; custom tools carry an explicit ArgumentSchema and a local
// Invoker.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrUnknownTool is returned when a declared name has no descriptor.
	ErrUnknownTool = errors.New("tool is not registered")
	// ErrNilInvoker is returned when a custom tool is registered without a capability.
	ErrNilInvoker = errors.New("custom tool invoker is nil")
	// ErrToolNameEmpty is returned when a descriptor has no name.
	ErrToolNameEmpty = errors.New("tool name is empty")
)

// Kind distinguishes provider-executed builtins from locally executed tools.
type Kind string

const (
	KindBuiltin Kind = "builtin"
	KindCustom  Kind = "custom"
)

// Invoker executes one tool call using validated arguments. Failures must be
// returned as errors, never panics; the engine converts them to structured
// tool results or run failures.
type Invoker func(ctx context.Context, arguments map[string]any) (string, error)

// Descriptor declares a callable capability exposed to the provider.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string
	// Schema declares accepted arguments; meaningful for custom tools only.
	Schema ArgumentSchema
	// Invoke is the local capability; nil for builtins.
	Invoke Invoker
	// WireType is the provider-native tool tag for builtins, e.g.
	// "web_search_preview". Empty for custom tools.
	WireType string
}

// builtinWireTypes maps declared builtin names to their provider tags.
// web_search and web_search_preview are aliases of the same capability.
var builtinWireTypes = map[string]string{
	"web_search":         "web_search_preview",
	"web_search_preview": "web_search_preview",
	"code_interpreter":   "code_interpreter",
	"image_generation":   "image_generation",
}

// Builtin returns the descriptor for a provider-native tool name, or false
// when the name is not a known builtin.
func Builtin(name string) (Descriptor, bool) {
	wireType, ok := builtinWireTypes[name]
	if !ok {
		return Descriptor{}, false
	}
	return Descriptor{Name: name, Kind: KindBuiltin, WireType: wireType}, true
}

// Registry stores descriptors by tool name. Registration is a rare
// administrative operation; resolution is read-heavy and lock-cheap.
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// New creates a Registry preloaded with every known builtin descriptor.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	descriptors := make(map[string]Descriptor, len(builtinWireTypes))
	for name := range builtinWireTypes {
		descriptors[name], _ = Builtin(name)
	}
	return &Registry{
		logger:      logger,
		descriptors: descriptors,
	}
}

// Register adds or replaces a descriptor. Re-registration under the same
// name wins and is logged, not fatal.
func (r *Registry) Register(descriptor Descriptor) error {
	if descriptor.Name == "" {
		return ErrToolNameEmpty
	}
	if descriptor.Kind == "" {
		descriptor.Kind = KindCustom
	}
	if descriptor.Kind == KindCustom && descriptor.Invoke == nil {
		return fmt.Errorf("%w: %q", ErrNilInvoker, descriptor.Name)
	}

	r.mu.Lock()
	_, collided := r.descriptors[descriptor.Name]
	r.descriptors[descriptor.Name] = descriptor
	r.mu.Unlock()

	if collided {
		r.logger.Warn("tool re-registered, previous descriptor replaced", "tool", descriptor.Name)
	}
	return nil
}

// Resolve maps declared tool names to descriptors, preserving declaration
// order. A missing name fails the whole resolution with ErrUnknownTool.
func (r *Registry) Resolve(names []string) ([]Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descriptor, ok := r.descriptors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
		}
		resolved = append(resolved, descriptor)
	}
	return resolved, nil
}

// Lookup returns the descriptor for one name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.descriptors[name]
	return descriptor, ok
}
