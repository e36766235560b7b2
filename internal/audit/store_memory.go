package audit

import (
	"context"
	"sync"

	"proofgate/pkg/domain"
)

// InMemoryStore keeps the audit trail in process memory. It is safe for
// concurrent access but does not persist across restarts.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.Address][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.Address][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Actor] = append(s.events[event.Actor], event)
	return nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actor domain.Address) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[actor]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.Address][]Event)
}
