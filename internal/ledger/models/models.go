package models

import (
	"time"

	"proofgate/pkg/domain"
)

// Metadata is the collection-level description of the credential set.
type Metadata struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	BaseURI string `json:"base_uri"`
}

// Credential is a single issued credential. Identifiers are assigned
// sequentially starting at zero and are never reused, so the highest
// identifier plus one equals the total supply.
type Credential struct {
	ID       domain.TokenID `json:"id"`
	Owner    domain.Address `json:"owner"`
	MintedAt time.Time      `json:"minted_at"`

	// ExpiresAt is informational. Expired credentials remain owned and
	// transferable; readers decide what expiration means to them.
	ExpiresAt time.Time `json:"expires_at"`

	// Approved, when set, may transfer this credential on the owner's
	// behalf. Cleared on every transfer.
	Approved domain.Address `json:"approved,omitempty"`
}

// IsExpired reports whether the credential is past its expiration at the
// given instant. The boundary itself counts as expired.
func (c Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CanTransfer reports whether the given address may move this credential.
func (c Credential) CanTransfer(by domain.Address) bool {
	return by == c.Owner || (by != "" && by == c.Approved)
}
