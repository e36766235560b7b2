package store

import (
	"context"

	"proofgate/internal/verifier/models"
	"proofgate/pkg/domain"
	pkgerrors "proofgate/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	// ErrNoActiveKey is returned when no verification key has been registered.
	ErrNoActiveKey = pkgerrors.New(pkgerrors.CodeNoActiveKey, "no active verification key")
	// ErrProofExists rejects a second insert for an already finalized proof identifier.
	ErrProofExists = pkgerrors.New(pkgerrors.CodeAlreadyConsumed, "proof identifier already finalized")
	// ErrNotConsumable rejects consumption of a rejected, already consumed, or unknown proof.
	ErrNotConsumable = pkgerrors.New(pkgerrors.CodeAlreadyConsumed, "proof is not available for consumption")
)

// Store owns verifier state: the active key and the append-only proof
// record set. Consume and Release must be atomic with respect to each other
// and to InsertProof.
type Store interface {
	SetActiveKey(ctx context.Context, key models.VerificationKey) error
	ActiveKey(ctx context.Context) (models.VerificationKey, error)

	// InsertProof records a proof outcome exactly once; a second insert
	// for the same identifier fails with ErrProofExists.
	InsertProof(ctx context.Context, rec models.ProofRecord) error
	GetProof(ctx context.Context, id domain.ProofID) (models.ProofRecord, error)

	// ConsumeProof flips the single-use latch on a verified, unconsumed
	// record; anything else fails with ErrNotConsumable.
	ConsumeProof(ctx context.Context, id domain.ProofID) error
	// ReleaseProof clears the latch on a consumed record. Compensating
	// action for a mint that failed after verification.
	ReleaseProof(ctx context.Context, id domain.ProofID) error

	// CountVerified returns the number of proofs that passed verification.
	CountVerified(ctx context.Context) (uint64, error)
}
