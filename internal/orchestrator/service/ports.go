package service

import (
	"context"
	"time"

	"proofgate/pkg/domain"
)

// Verifier is the proof-checking component as the orchestrator sees it.
type Verifier interface {
	// Verify finalizes a proof outcome and returns its identifier. The
	// identifier is meaningful even alongside an already_consumed error.
	Verify(ctx context.Context, keyBytes, proofBytes, publicInputs []byte) (domain.ProofID, error)
	// Consume reserves a verified proof for issuance; single-use.
	Consume(ctx context.Context, id domain.ProofID) error
	// Release undoes a reservation after a failed mint.
	Release(ctx context.Context, id domain.ProofID) error
	IsVerified(ctx context.Context, id domain.ProofID) bool
}

// Ledger is the credential store as the orchestrator sees it. The adapter
// binds the orchestrator's own principal as the minting caller.
type Ledger interface {
	Mint(ctx context.Context, to domain.Address, expiresAt time.Time) (domain.TokenID, error)
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error)
	GetExpiration(ctx context.Context, id domain.TokenID) (time.Time, error)
	IsExpired(ctx context.Context, id domain.TokenID) (bool, error)
	BalanceOf(ctx context.Context, owner domain.Address) (uint64, error)
}
