// Package disk provides a file-backed conversation state store, one JSON
// document per thread. Suitable for single-process deployments that must
// survive restarts.
package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/promptfile/promptfile/convstore"
)

type Store struct {
	dir string

	// mu serializes writes per process; the write itself is atomic via
	// rename so concurrent readers never observe a partial document.
	mu sync.Mutex
}

var _ convstore.Store = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("thread state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Get(_ context.Context, threadID string) (convstore.State, error) {
	path, err := s.statePath(threadID)
	if err != nil {
		return convstore.State{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return convstore.State{}, fmt.Errorf("%w: %q", convstore.ErrThreadNotFound, threadID)
		}
		return convstore.State{}, fmt.Errorf("read thread state %q: %w", threadID, err)
	}

	var state convstore.State
	if err := json.Unmarshal(data, &state); err != nil {
		return convstore.State{}, fmt.Errorf("decode thread state %q: %w", threadID, err)
	}
	return state, nil
}

func (s *Store) Put(_ context.Context, state convstore.State) error {
	path, err := s.statePath(state.ThreadID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode thread state %q: %w", state.ThreadID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write thread state %q: %w", state.ThreadID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit thread state %q: %w", state.ThreadID, err)
	}
	return nil
}

func (s *Store) statePath(threadID string) (string, error) {
	if threadID == "" || strings.ContainsAny(threadID, `/\`) || strings.Contains(threadID, "..") {
		return "", fmt.Errorf("invalid thread id %q", threadID)
	}
	return filepath.Join(s.dir, threadID+".json"), nil
}
