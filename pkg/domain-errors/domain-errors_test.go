package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeVerificationFailed, "proof is not valid under the active key")
	assert.Equal(t, "proof is not valid under the active key", err.Error())

	bare := New(CodeNoActiveKey, "")
	assert.Equal(t, "no_active_key", bare.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeAlreadyConsumed, "proof already finalized")
	assert.True(t, errors.Is(err, New(CodeAlreadyConsumed, "other message")))
	assert.False(t, errors.Is(err, New(CodeVerificationFailed, "")))
}

func TestWrapRetags(t *testing.T) {
	cause := New(CodeUnauthorized, "caller is not the ledger owner")
	wrapped := Wrap(cause, CodeMintFailedAfterVerify, "mint failed after verification")

	// The outer code wins, the cause stays reachable.
	assert.True(t, HasCode(wrapped, CodeMintFailedAfterVerify))
	assert.True(t, errors.Is(wrapped, cause))

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, CodeMintFailedAfterVerify, e.Code)
}

func TestWrapPreservingKeepsDomainCode(t *testing.T) {
	cause := New(CodeMalformedProof, "proof bytes are not valid JSON")
	wrapped := WrapPreserving(cause, CodeInternal, "verify call failed")
	assert.True(t, HasCode(wrapped, CodeMalformedProof))

	plain := fmt.Errorf("connection reset")
	wrapped = WrapPreserving(plain, CodeInternal, "verify call failed")
	assert.True(t, HasCode(wrapped, CodeInternal))
}

func TestHasCodeNonDomainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}
