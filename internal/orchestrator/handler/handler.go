package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/audit"
	"proofgate/internal/orchestrator/service"
	"proofgate/internal/orchestrator/store"
	"proofgate/internal/platform/middleware"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
	adminmw "proofgate/pkg/platform/middleware/admin"
)

// Service defines the orchestrator operations the HTTP layer depends on.
type Service interface {
	Issue(ctx context.Context, target domain.Address, expiresAt time.Time, keyBytes, proofBytes, publicInputs []byte) (service.IssueResult, error)
	AdminMint(ctx context.Context, caller, target domain.Address, expiresAt time.Time) (service.IssueResult, error)
	Config(ctx context.Context) (store.Config, error)
	SetAdmin(ctx context.Context, caller, admin domain.Address) error
	SetVerifier(ctx context.Context, caller, addr domain.Address) error
	SetLedger(ctx context.Context, caller, addr domain.Address) error
}

// AuditReader lists audit events for the admin query surface.
type AuditReader interface {
	ListByActor(ctx context.Context, actor domain.Address) ([]audit.Event, error)
}

// Handler exposes the issuance endpoint and the admin plane.
type Handler struct {
	orchestrator Service
	auditLog     AuditReader
	logger       *slog.Logger
}

func New(orchestrator Service, auditLog AuditReader, logger *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, auditLog: auditLog, logger: logger}
}

// Register registers the public issuance route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/issue", h.handleIssue)
}

// RegisterAdmin registers routes that must sit behind the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/credentials", h.handleAdminMint)
	r.Get("/admin/config", h.handleGetConfig)
	r.Put("/admin/config/admin", h.handleSetAdmin)
	r.Put("/admin/config/verifier", h.handleSetVerifier)
	r.Put("/admin/config/ledger", h.handleSetLedger)
	r.Get("/admin/audit/{actor}", h.handleAuditByActor)
}

// IssueRequest carries everything needed for proof-gated issuance. The
// byte fields are base64; the decoded key and proof are JSON documents in
// the groth16 shapes.
type IssueRequest struct {
	Target          string    `json:"target"`
	ExpiresAt       time.Time `json:"expires_at"`
	VerificationKey string    `json:"verification_key"`
	Proof           string    `json:"proof"`
	PublicInputs    string    `json:"public_inputs"`
}

func (r *IssueRequest) Validate() error {
	if r.Target == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	if r.ExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expires_at is required")
	}
	if r.VerificationKey == "" || r.Proof == "" || r.PublicInputs == "" {
		return dErrors.New(dErrors.CodeValidation, "verification_key, proof, and public_inputs are required")
	}
	return nil
}

type issueResponse struct {
	TokenID uint64 `json:"token_id"`
	ProofID string `json:"proof_id,omitempty"`
	Mode    string `json:"mode"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := domain.ParseAddress(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	keyBytes, proofBytes, inputBytes, err := decodeProofFields(req.VerificationKey, req.Proof, req.PublicInputs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.orchestrator.Issue(ctx, target, req.ExpiresAt, keyBytes, proofBytes, inputBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "issuance rejected",
			"request_id", requestID,
			"target", target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, issueResponse{
		TokenID: uint64(res.TokenID),
		ProofID: res.ProofID.String(),
		Mode:    res.Path,
	})
}

// AdminMintRequest is the degraded issuance path: no proof, admin only.
type AdminMintRequest struct {
	Target    string    `json:"target"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *AdminMintRequest) Validate() error {
	if r.Target == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	if r.ExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expires_at is required")
	}
	return nil
}

func (h *Handler) handleAdminMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller, ok := h.adminCaller(w, ctx, requestID)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AdminMintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := domain.ParseAddress(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.orchestrator.AdminMint(ctx, caller, target, req.ExpiresAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, issueResponse{
		TokenID: uint64(res.TokenID),
		Mode:    res.Path,
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.orchestrator.Config(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// ConfigUpdateRequest re-points one component address.
type ConfigUpdateRequest struct {
	Address string `json:"address"`
}

func (r *ConfigUpdateRequest) Validate() error {
	if r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	return nil
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	h.updateConfig(w, r, h.orchestrator.SetAdmin)
}

func (h *Handler) handleSetVerifier(w http.ResponseWriter, r *http.Request) {
	h.updateConfig(w, r, h.orchestrator.SetVerifier)
}

func (h *Handler) handleSetLedger(w http.ResponseWriter, r *http.Request) {
	h.updateConfig(w, r, h.orchestrator.SetLedger)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request, set func(context.Context, domain.Address, domain.Address) error) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller, ok := h.adminCaller(w, ctx, requestID)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ConfigUpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := set(ctx, caller, addr); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.orchestrator.Config(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleAuditByActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := domain.ParseAddress(chi.URLParam(r, "actor"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.auditLog.ListByActor(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]audit.Event{"events": events})
}

func (h *Handler) adminCaller(w http.ResponseWriter, ctx context.Context, requestID string) (domain.Address, bool) {
	caller := adminmw.GetAdminPrincipal(ctx)
	if caller == "" {
		h.logger.ErrorContext(ctx, "admin principal missing from context despite admin middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

// decodeProofFields rejects undecodable base64 before the verifier ever
// sees the payload, under the same malformed_proof code it would use.
func decodeProofFields(key, proof, inputs string) (keyBytes, proofBytes, inputBytes []byte, err error) {
	if keyBytes, err = base64.StdEncoding.DecodeString(key); err != nil {
		return nil, nil, nil, dErrors.New(dErrors.CodeInvalidKey, "verification_key is not valid base64")
	}
	if proofBytes, err = base64.StdEncoding.DecodeString(proof); err != nil {
		return nil, nil, nil, dErrors.New(dErrors.CodeMalformedProof, "proof is not valid base64")
	}
	if inputBytes, err = base64.StdEncoding.DecodeString(inputs); err != nil {
		return nil, nil, nil, dErrors.New(dErrors.CodeMalformedProof, "public_inputs is not valid base64")
	}
	return keyBytes, proofBytes, inputBytes, nil
}
