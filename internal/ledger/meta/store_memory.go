package meta

import (
	"context"
	"sync"

	"carbonledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the initialization marker in process memory.
type InMemoryStore struct {
	mu          sync.Mutex
	initialized bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Initialize(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return sentinel.ErrConflict
	}
	s.initialized = true
	return nil
}

func (s *InMemoryStore) Initialized(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized, nil
}
