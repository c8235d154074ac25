// Package memory is a process-local conversation store.
package memory

import (
	"context"
	"sync"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]conversations.State
}

func New() *Store {
	return &Store{sessions: map[string]conversations.State{}}
}

func (s *Store) Load(_ context.Context, sessionID string) (conversations.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return conversations.State{}, stores.ErrNotFound
	}
	return state.Clone(), nil
}

func (s *Store) Save(_ context.Context, sessionID string, state conversations.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = state.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return stores.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
