package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by a Loader when no definition document exists for
// the requested name.
var ErrNotFound = errors.New("prompt definition not found")

const documentExtension = ".md"

// Loader reads definition documents from a directory and caches the parsed
// result per name. Lookups are read-heavy; a reload replaces the cached
// definition wholesale and is treated as a rare administrative operation.
type Loader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*PromptDefinition
}

// NewLoader creates a Loader over the given directory. The directory must
// exist; documents are lazily parsed on first Load.
func NewLoader(dir string) (*Loader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definition directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definition directory %q: not a directory", dir)
	}
	return &Loader{
		dir:   dir,
		cache: make(map[string]*PromptDefinition),
	}, nil
}

// Load returns the parsed definition for name, reading and parsing the
// backing document on first use. A document that fails to parse is not
// cached, so a corrected file is picked up by the next Reload or process.
func (l *Loader) Load(name string) (*PromptDefinition, error) {
	l.mu.RLock()
	cached, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return l.reload(name)
}

// Reload re-parses the backing document for name, replacing any cached value.
func (l *Loader) Reload(name string) (*PromptDefinition, error) {
	return l.reload(name)
}

func (l *Loader) reload(name string) (*PromptDefinition, error) {
	document, err := os.ReadFile(filepath.Join(l.dir, name+documentExtension))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read definition %q: %w", name, err)
	}

	parsed, err := Parse(name, string(document))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = parsed
	l.mu.Unlock()
	return parsed, nil
}

// Names lists the definition names available in the directory, sorted. The
// listing reflects the filesystem, not the cache.
func (l *Loader) Names() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), documentExtension))
	}
	sort.Strings(names)
	return names, nil
}
