// Package inmem provides a memory-backed conversation state store.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptfile/promptfile/convstore"
)

// Store keeps continuity state in a mutex-guarded map. Keyed access only:
// operations on different thread ids never interfere.
type Store struct {
	mu     sync.RWMutex
	states map[string]convstore.State
}

var _ convstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{states: make(map[string]convstore.State)}
}

func (s *Store) Get(_ context.Context, threadID string) (convstore.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[threadID]
	if !ok {
		return convstore.State{}, fmt.Errorf("%w: %q", convstore.ErrThreadNotFound, threadID)
	}
	return state, nil
}

func (s *Store) Put(_ context.Context, state convstore.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ThreadID] = state
	return nil
}
