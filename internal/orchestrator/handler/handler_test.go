package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"proofgate/internal/audit"
	"proofgate/internal/orchestrator/service"
	"proofgate/internal/orchestrator/store"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	adminmw "proofgate/pkg/platform/middleware/admin"
)

const testProofID = domain.ProofID("cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")

type stubOrchestrator struct {
	issueRes service.IssueResult
	issueErr error

	mintRes service.IssueResult
	mintErr error

	cfg    store.Config
	cfgErr error

	setCaller domain.Address
	setAddr   domain.Address
	setErr    error

	gotTarget    domain.Address
	gotExpiresAt time.Time
	gotKey       []byte
}

func (o *stubOrchestrator) Issue(_ context.Context, target domain.Address, expiresAt time.Time, keyBytes, _, _ []byte) (service.IssueResult, error) {
	o.gotTarget = target
	o.gotExpiresAt = expiresAt
	o.gotKey = keyBytes
	return o.issueRes, o.issueErr
}

func (o *stubOrchestrator) AdminMint(_ context.Context, caller, target domain.Address, _ time.Time) (service.IssueResult, error) {
	o.setCaller = caller
	o.gotTarget = target
	return o.mintRes, o.mintErr
}

func (o *stubOrchestrator) Config(context.Context) (store.Config, error) {
	return o.cfg, o.cfgErr
}

func (o *stubOrchestrator) SetAdmin(_ context.Context, caller, admin domain.Address) error {
	o.setCaller, o.setAddr = caller, admin
	return o.setErr
}

func (o *stubOrchestrator) SetVerifier(_ context.Context, caller, addr domain.Address) error {
	o.setCaller, o.setAddr = caller, addr
	return o.setErr
}

func (o *stubOrchestrator) SetLedger(_ context.Context, caller, addr domain.Address) error {
	o.setCaller, o.setAddr = caller, addr
	return o.setErr
}

type HandlerSuite struct {
	suite.Suite
	orch   *stubOrchestrator
	events *audit.InMemoryStore
	router *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.orch = &stubOrchestrator{
		cfg: store.Config{Admin: "GADMIN", Verifier: "GVERIFIER", Ledger: "GLEDGER"},
	}
	s.events = audit.NewInMemoryStore()

	h := New(s.orch, s.events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Route("/v1", func(r chi.Router) {
		h.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					ctx := adminmw.WithAdminPrincipal(req.Context(), "GADMIN")
					next.ServeHTTP(w, req.WithContext(ctx))
				})
			})
			h.RegisterAdmin(r)
		})
	})
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func issueBody() string {
	b64 := func(v string) string { return base64.StdEncoding.EncodeToString([]byte(v)) }
	return fmt.Sprintf(`{
		"target": "GALICE",
		"expires_at": "2027-01-01T00:00:00Z",
		"verification_key": %q,
		"proof": %q,
		"public_inputs": %q
	}`, b64(`{"protocol":"groth16"}`), b64(`{"pi_a":[]}`), b64(`["42"]`))
}

func (s *HandlerSuite) TestIssue() {
	s.orch.issueRes = service.IssueResult{TokenID: 7, ProofID: testProofID, Path: service.PathProof}

	rec := s.do(http.MethodPost, "/v1/credentials/issue", issueBody())

	s.Equal(http.StatusCreated, rec.Code)
	var body issueResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(uint64(7), body.TokenID)
	s.Equal(testProofID.String(), body.ProofID)
	s.Equal("proof", body.Mode)

	s.Equal(domain.Address("GALICE"), s.orch.gotTarget)
	s.JSONEq(`{"protocol":"groth16"}`, string(s.orch.gotKey))
}

func (s *HandlerSuite) TestIssueValidation() {
	rec := s.do(http.MethodPost, "/v1/credentials/issue", `{"target": "GALICE"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestIssueBadBase64() {
	rec := s.do(http.MethodPost, "/v1/credentials/issue", `{
		"target": "GALICE",
		"expires_at": "2027-01-01T00:00:00Z",
		"verification_key": "not base64!",
		"proof": "bm9wZQ==",
		"public_inputs": "bm9wZQ=="
	}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(string(dErrors.CodeInvalidKey), body["error"])
}

func (s *HandlerSuite) TestIssueErrorTaxonomyPassthrough() {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeVerificationFailed, http.StatusUnprocessableEntity},
		{dErrors.CodeAlreadyConsumed, http.StatusConflict},
		{dErrors.CodeNoActiveKey, http.StatusNotFound},
		{dErrors.CodeMintFailedAfterVerify, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s.orch.issueErr = dErrors.New(tc.code, "nope")

		rec := s.do(http.MethodPost, "/v1/credentials/issue", issueBody())

		s.Equal(tc.status, rec.Code, "code %s", tc.code)
		var body map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(string(tc.code), body["error"])
	}
}

func (s *HandlerSuite) TestAdminMint() {
	s.orch.mintRes = service.IssueResult{TokenID: 3, Path: service.PathAdminDirect}

	rec := s.do(http.MethodPost, "/v1/admin/credentials",
		`{"target": "GALICE", "expires_at": "2027-01-01T00:00:00Z"}`)

	s.Equal(http.StatusCreated, rec.Code)
	var body issueResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(uint64(3), body.TokenID)
	s.Equal("admin_direct", body.Mode)
	s.Empty(body.ProofID)
	s.Equal(domain.Address("GADMIN"), s.orch.setCaller)
}

func (s *HandlerSuite) TestGetConfig() {
	rec := s.do(http.MethodGet, "/v1/admin/config", "")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"admin": "GADMIN", "verifier": "GVERIFIER", "ledger": "GLEDGER"}`, rec.Body.String())
}

func (s *HandlerSuite) TestSetConfigField() {
	rec := s.do(http.MethodPut, "/v1/admin/config/verifier", `{"address": "GNEWVERIFIER"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(domain.Address("GADMIN"), s.orch.setCaller)
	s.Equal(domain.Address("GNEWVERIFIER"), s.orch.setAddr)
}

func (s *HandlerSuite) TestSetConfigRequiresAddress() {
	rec := s.do(http.MethodPut, "/v1/admin/config/admin", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestAuditByActor() {
	ctx := context.Background()
	s.Require().NoError(s.events.Append(ctx, audit.Event{
		Actor:    "GALICE",
		Action:   audit.ActionCredentialIssued,
		Subject:  "0",
		Decision: "issued",
	}))

	rec := s.do(http.MethodGet, "/v1/admin/audit/GALICE", "")

	s.Equal(http.StatusOK, rec.Code)
	var body map[string][]audit.Event
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body["events"], 1)
	s.Equal(audit.ActionCredentialIssued, body["events"][0].Action)
}
