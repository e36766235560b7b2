package store

import (
	"context"

	"proofgate/internal/ledger/models"
	"proofgate/pkg/domain"
	pkgerrors "proofgate/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "credential not found")
	// ErrNotInitialized is returned when the ledger has no owner yet.
	ErrNotInitialized = pkgerrors.New(pkgerrors.CodeConflict, "ledger is not initialized")
	// ErrAlreadyInitialized rejects a second initialization.
	ErrAlreadyInitialized = pkgerrors.New(pkgerrors.CodeAlreadyInitialized, "ledger is already initialized")
)

// State is the ledger's collection-level configuration, set exactly once.
type State struct {
	Owner    domain.Address
	Metadata models.Metadata
}

// Store owns ledger state: the one-time collection configuration and the
// credential set. Insert assigns identifiers sequentially from zero and
// must be atomic so concurrent mints never share an identifier.
type Store interface {
	// Initialize records owner and metadata exactly once; a second call
	// fails with ErrAlreadyInitialized.
	Initialize(ctx context.Context, state State) error
	GetState(ctx context.Context) (State, error)

	// Insert assigns the next sequential identifier and stores the
	// credential under it.
	Insert(ctx context.Context, cred models.Credential) (domain.TokenID, error)
	Get(ctx context.Context, id domain.TokenID) (models.Credential, error)
	Update(ctx context.Context, cred models.Credential) error

	// ListByOwner returns identifiers owned by the address in ascending
	// order, starting at from (inclusive), up to limit.
	ListByOwner(ctx context.Context, owner domain.Address, from domain.TokenID, limit int) ([]domain.TokenID, error)
	CountByOwner(ctx context.Context, owner domain.Address) (uint64, error)
	Total(ctx context.Context) (uint64, error)
}
