package store

import (
	"context"
	"sort"
	"sync"

	"proofgate/internal/ledger/models"
	"proofgate/pkg/domain"
)

// InMemoryStore keeps the ledger in process memory. Safe for concurrent
// access; does not persist across restarts.
type InMemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	state       State
	credentials map[domain.TokenID]models.Credential
	byOwner     map[domain.Address]map[domain.TokenID]struct{}
	next        domain.TokenID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		credentials: make(map[domain.TokenID]models.Credential),
		byOwner:     make(map[domain.Address]map[domain.TokenID]struct{}),
	}
}

func (s *InMemoryStore) Initialize(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.state = state
	s.initialized = true
	return nil
}

func (s *InMemoryStore) GetState(_ context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return State{}, ErrNotInitialized
	}
	return s.state, nil
}

func (s *InMemoryStore) Insert(_ context.Context, cred models.Credential) (domain.TokenID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	cred.ID = s.next
	s.next++
	s.credentials[cred.ID] = cred
	s.index(cred.Owner, cred.ID)
	return cred.ID, nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.TokenID) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return models.Credential{}, ErrNotFound
	}
	return cred, nil
}

func (s *InMemoryStore) Update(_ context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.credentials[cred.ID]
	if !ok {
		return ErrNotFound
	}
	if prev.Owner != cred.Owner {
		delete(s.byOwner[prev.Owner], cred.ID)
		s.index(cred.Owner, cred.ID)
	}
	s.credentials[cred.ID] = cred
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.Address, from domain.TokenID, limit int) ([]domain.TokenID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make([]domain.TokenID, 0, len(s.byOwner[owner]))
	for id := range s.byOwner[owner] {
		if id >= from {
			owned = append(owned, id)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i] < owned[j] })
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (s *InMemoryStore) CountByOwner(_ context.Context, owner domain.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.byOwner[owner])), nil
}

func (s *InMemoryStore) Total(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.next), nil
}

// index must be called with the write lock held.
func (s *InMemoryStore) index(owner domain.Address, id domain.TokenID) {
	if s.byOwner[owner] == nil {
		s.byOwner[owner] = make(map[domain.TokenID]struct{})
	}
	s.byOwner[owner][id] = struct{}{}
}
