package store

import (
	"context"

	"proofgate/pkg/domain"
	pkgerrors "proofgate/pkg/domain-errors"
)

var (
	// ErrNotInitialized is returned before the one-time setup has run.
	ErrNotInitialized = pkgerrors.New(pkgerrors.CodeConflict, "orchestrator is not initialized")
	// ErrAlreadyInitialized rejects a second initialization.
	ErrAlreadyInitialized = pkgerrors.New(pkgerrors.CodeAlreadyInitialized, "orchestrator is already initialized")
)

// Config is the orchestrator's component wiring: who administers it and
// which verifier and ledger it drives. Set once at initialization, each
// field re-pointable by the admin afterwards.
type Config struct {
	Admin    domain.Address `json:"admin"`
	Verifier domain.Address `json:"verifier"`
	Ledger   domain.Address `json:"ledger"`
}

// Store owns the orchestrator configuration.
type Store interface {
	// Initialize records the configuration exactly once; a second call
	// fails with ErrAlreadyInitialized.
	Initialize(ctx context.Context, cfg Config) error
	Get(ctx context.Context) (Config, error)
	// Update replaces the configuration. Callers gate on the admin.
	Update(ctx context.Context, cfg Config) error
}
