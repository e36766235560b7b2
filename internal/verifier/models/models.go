package models

import (
	"time"

	"proofgate/pkg/domain"
)

// VerificationKey is the registered public parameter set proofs are checked
// against. At most one key is active; registering a new one supersedes it.
type VerificationKey struct {
	ID           domain.KeyID
	Bytes        []byte
	RegisteredAt time.Time
}

// ProofStatus is the terminal outcome of a proof's single verification.
// There is no "unseen" member: an unseen proof has no record at all, so the
// illegal combinations (consumed-but-rejected, consumed-but-unseen) cannot
// be represented.
type ProofStatus string

const (
	StatusVerified ProofStatus = "verified"
	StatusRejected ProofStatus = "rejected"
)

// ProofRecord is the audit/replay-prevention record for one proof
// identifier. Records are created exactly once and never deleted; Consumed
// is meaningful only when Status is StatusVerified and is the single-use
// issuance latch.
type ProofRecord struct {
	ID         domain.ProofID
	KeyID      domain.KeyID
	Status     ProofStatus
	Consumed   bool
	RecordedAt time.Time
}

// Verified reports whether the record's proof passed the cryptographic check.
func (r ProofRecord) Verified() bool {
	return r.Status == StatusVerified
}

// Consumable reports whether the record can still back an issuance.
func (r ProofRecord) Consumable() bool {
	return r.Status == StatusVerified && !r.Consumed
}
