package store

import (
	"context"
	"sync"
)

// InMemoryStore keeps the orchestrator configuration in process memory.
type InMemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	cfg         Config
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Initialize(_ context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.cfg = cfg
	s.initialized = true
	return nil
}

func (s *InMemoryStore) Get(_ context.Context) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Config{}, ErrNotInitialized
	}
	return s.cfg, nil
}

func (s *InMemoryStore) Update(_ context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.cfg = cfg
	return nil
}
