// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"encoding/hex"
	"strconv"

	dErrors "proofgate/pkg/domain-errors"
)

// Address identifies a principal: a credential holder, the admin, or a
// component. Addresses are opaque account identifiers; the service never
// interprets their structure beyond bounds checking.
type Address string

const maxAddressLen = 128

// ParseAddress validates an address at a trust boundary (handlers, API inputs).
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if len(s) > maxAddressLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is too long")
	}
	return Address(s), nil
}

func (a Address) String() string { return string(a) }
func (a Address) IsZero() bool   { return a == "" }

// TokenID is the sequential credential identifier assigned by the ledger,
// starting at 0 and never reused.
type TokenID uint64

func (id TokenID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseTokenID validates a token identifier from an API input.
func ParseTokenID(s string) (TokenID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid token ID: must be a non-negative integer")
	}
	return TokenID(n), nil
}

// ProofID identifies a (key, proof, public inputs) triple. It is the
// hex-encoded keccak256 of the three byte fields.
type ProofID string

// KeyID identifies a verification key by content hash (hex-encoded keccak256).
type KeyID string

// NewProofID encodes a 32-byte digest as a ProofID.
func NewProofID(digest [32]byte) ProofID {
	return ProofID(hex.EncodeToString(digest[:]))
}

// NewKeyID encodes a 32-byte digest as a KeyID.
func NewKeyID(digest [32]byte) KeyID {
	return KeyID(hex.EncodeToString(digest[:]))
}

// ParseProofID validates a proof identifier from an API input.
func ParseProofID(s string) (ProofID, error) {
	if err := validateDigest(s, "proof ID"); err != nil {
		return "", err
	}
	return ProofID(s), nil
}

// ParseKeyID validates a key identifier from an API input.
func ParseKeyID(s string) (KeyID, error) {
	if err := validateDigest(s, "key ID"); err != nil {
		return "", err
	}
	return KeyID(s), nil
}

func (id ProofID) String() string { return string(id) }
func (id KeyID) String() string   { return string(id) }

// Bytes returns the raw digest. Identifiers constructed through
// NewKeyID/ParseKeyID are always valid hex, so decoding cannot fail.
func (id KeyID) Bytes() []byte {
	b, _ := hex.DecodeString(string(id))
	return b
}

func validateDigest(s, what string) error {
	if len(s) != 64 {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+": must be 64 hex characters")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+": not hex")
	}
	return nil
}
