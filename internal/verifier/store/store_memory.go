package store

import (
	"context"
	"sync"

	"proofgate/internal/verifier/models"
	"proofgate/pkg/domain"
)

// InMemoryStore is an in-memory implementation of Store for tests or local
// use. It is safe for concurrent access but does not persist across process
// restarts.
type InMemoryStore struct {
	mu        sync.RWMutex
	activeKey *models.VerificationKey
	proofs    map[domain.ProofID]models.ProofRecord
	verified  uint64
}

// NewInMemoryStore constructs an empty in-memory verifier store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{proofs: make(map[domain.ProofID]models.ProofRecord)}
}

// SetActiveKey replaces the active verification key.
func (s *InMemoryStore) SetActiveKey(_ context.Context, key models.VerificationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeKey = &key
	return nil
}

// ActiveKey returns the active key or ErrNoActiveKey.
func (s *InMemoryStore) ActiveKey(_ context.Context) (models.VerificationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeKey == nil {
		return models.VerificationKey{}, ErrNoActiveKey
	}
	return *s.activeKey, nil
}

// InsertProof records a proof outcome exactly once.
func (s *InMemoryStore) InsertProof(_ context.Context, rec models.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proofs[rec.ID]; exists {
		return ErrProofExists
	}
	s.proofs[rec.ID] = rec
	if rec.Status == models.StatusVerified {
		s.verified++
	}
	return nil
}

// GetProof retrieves a proof record by identifier or returns ErrNotFound.
func (s *InMemoryStore) GetProof(_ context.Context, id domain.ProofID) (models.ProofRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.proofs[id]
	if !ok {
		return models.ProofRecord{}, ErrNotFound
	}
	return rec, nil
}

// ConsumeProof flips the single-use latch under the store lock.
func (s *InMemoryStore) ConsumeProof(_ context.Context, id domain.ProofID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proofs[id]
	if !ok || !rec.Consumable() {
		return ErrNotConsumable
	}
	rec.Consumed = true
	s.proofs[id] = rec
	return nil
}

// ReleaseProof clears the latch on a consumed, verified record.
func (s *InMemoryStore) ReleaseProof(_ context.Context, id domain.ProofID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proofs[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != models.StatusVerified || !rec.Consumed {
		return ErrNotConsumable
	}
	rec.Consumed = false
	s.proofs[id] = rec
	return nil
}

// CountVerified returns the number of proofs that passed verification.
func (s *InMemoryStore) CountVerified(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verified, nil
}
