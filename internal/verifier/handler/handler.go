package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/platform/middleware"
	"proofgate/internal/verifier/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
	adminmw "proofgate/pkg/platform/middleware/admin"
)

// Service defines the verifier operations the HTTP layer depends on.
type Service interface {
	RegisterKey(ctx context.Context, caller domain.Address, keyBytes []byte) (domain.KeyID, error)
	ActiveKeyID(ctx context.Context) (domain.KeyID, error)
	Proof(ctx context.Context, id domain.ProofID) (models.ProofRecord, error)
	TotalVerified(ctx context.Context) (uint64, error)
}

// Handler exposes verification-key management and proof-record reads.
type Handler struct {
	verifier Service
	logger   *slog.Logger
}

func New(verifier Service, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, logger: logger}
}

// RegisterAdmin registers routes that must sit behind the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/verifier/key", h.handleRegisterKey)
}

// Register registers the public read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verifier/key", h.handleActiveKey)
	r.Get("/verifier/stats", h.handleStats)
	r.Get("/proofs/{proofID}", h.handleGetProof)
}

// RegisterKeyRequest carries a groth16 verification key. The key is JSON
// itself, so it rides along as a raw message rather than a string.
type RegisterKeyRequest struct {
	Key json.RawMessage `json:"key"`
}

func (r *RegisterKeyRequest) Validate() error {
	if len(r.Key) == 0 {
		return dErrors.New(dErrors.CodeValidation, "key is required")
	}
	return nil
}

type keyResponse struct {
	KeyID string `json:"key_id"`
}

func (h *Handler) handleRegisterKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := adminmw.GetAdminPrincipal(ctx)
	if caller == "" {
		h.logger.ErrorContext(ctx, "admin principal missing from context despite admin middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterKeyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	keyID, err := h.verifier.RegisterKey(ctx, caller, req.Key)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to register verification key",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, keyResponse{KeyID: keyID.String()})
}

func (h *Handler) handleActiveKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keyID, err := h.verifier.ActiveKeyID(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, keyResponse{KeyID: keyID.String()})
}

type proofResponse struct {
	ProofID    string     `json:"proof_id"`
	Verified   bool       `json:"verified"`
	KeyID      string     `json:"key_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Consumed   bool       `json:"consumed,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// handleGetProof reports verification status. Unknown identifiers are not
// an error: a proof nobody submitted is simply not verified.
func (h *Handler) handleGetProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	proofID, err := domain.ParseProofID(chi.URLParam(r, "proofID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.verifier.Proof(ctx, proofID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, proofResponse{ProofID: proofID.String()})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, proofResponse{
		ProofID:    rec.ID.String(),
		Verified:   rec.Verified(),
		KeyID:      rec.KeyID.String(),
		Status:     string(rec.Status),
		Consumed:   rec.Consumed,
		RecordedAt: &rec.RecordedAt,
	})
}

type statsResponse struct {
	TotalVerified uint64 `json:"total_verified"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.verifier.TotalVerified(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statsResponse{TotalVerified: total})
}
