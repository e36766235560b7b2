package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "proofgate/pkg/domain-errors"
)

type testRequest struct {
	Target string `json:"target"`
}

func (r *testRequest) Validate() error {
	if r.Target == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestDecodeAndPrepareSuccess(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"target":"GABC"}`))
	w := httptest.NewRecorder()

	req, ok := DecodeAndPrepare[testRequest](w, r, testLogger(), r.Context(), "req-1")
	require.True(t, ok)
	assert.Equal(t, "GABC", req.Target)
}

func TestDecodeAndPrepareBadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	_, ok := DecodeAndPrepare[testRequest](w, r, testLogger(), r.Context(), "req-1")
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bad_request", body["error"])
}

func TestDecodeAndPrepareValidationFailure(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	_, ok := DecodeAndPrepare[testRequest](w, r, testLogger(), r.Context(), "req-1")
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "target is required", body["error_description"])
}

func TestWriteErrorTaxonomy(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeNotFound, 404},
		{dErrors.CodeUnauthorized, 401},
		{dErrors.CodeAlreadyInitialized, 409},
		{dErrors.CodeAlreadyConsumed, 409},
		{dErrors.CodeNoActiveKey, 404},
		{dErrors.CodeInvalidKey, 400},
		{dErrors.CodeMalformedProof, 400},
		{dErrors.CodeVerificationFailed, 422},
		{dErrors.CodeMintFailedAfterVerify, 500},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(tc.code, "boom"))
		assert.Equal(t, tc.status, w.Code, string(tc.code))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, string(tc.code), body["error"])
	}
}
