package service

import (
	"context"
	"sync"

	"github.com/CLillis357/VigilantIE/internal/alert"
)

// MemoryTriggerStore keeps edge-trigger state in process. State is lost on restart,
// so a user already near a report is alerted once more after a restart.
type MemoryTriggerStore struct {
	mu     sync.RWMutex
	states map[string]alert.State
}

func NewMemoryTriggerStore() *MemoryTriggerStore {
	return &MemoryTriggerStore{states: make(map[string]alert.State)}
}

func (s *MemoryTriggerStore) Get(_ context.Context, userID string) (alert.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID], nil
}

func (s *MemoryTriggerStore) Set(_ context.Context, userID string, st alert.State) error {
	s.mu.Lock()
	s.states[userID] = st
	s.mu.Unlock()
	return nil
}
