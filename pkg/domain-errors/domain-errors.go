package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"

	// Issuance lifecycle error codes.
	CodeAlreadyInitialized    Code = "already_initialized"      // Setup invoked twice
	CodeInvalidKey            Code = "invalid_key"              // Verification key fails structural validation or does not match the active key
	CodeNoActiveKey           Code = "no_active_key"            // No verification key registered
	CodeMalformedProof        Code = "malformed_proof"          // Proof or public inputs cannot be decoded
	CodeVerificationFailed    Code = "verification_failed"      // Cryptographic check returned false
	CodeAlreadyConsumed       Code = "already_consumed"         // Proof identifier was already finalized
	CodeMintFailedAfterVerify Code = "mint_failed_after_verify" // Ledger mint failed after successful proof verification
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error. The new code
// always wins, so layers that must re-tag a failure (the orchestrator's
// atomicity wrapper) surface their own code while keeping the cause in the
// chain.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WrapPreserving creates a domain error wrapping an existing error while
// keeping the original domain code if one is present. Used at boundaries
// that add context but must propagate component errors unchanged.
func WrapPreserving(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
