// Package handler exposes the credential ledger over HTTP.
//
// Transfer and approve take the acting principal from the request body
// (from, owner) without authenticating it; holders have no keys or
// sessions here, so ownership checks gate state changes while caller
// identity is trusted as declared. Only the admin plane authenticates.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/ledger/models"
	"proofgate/internal/platform/middleware"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
)

const defaultPageSize = 50

// Service defines the ledger operations the HTTP layer depends on.
type Service interface {
	Credential(ctx context.Context, id domain.TokenID) (models.Credential, error)
	IsExpired(ctx context.Context, id domain.TokenID) (bool, error)
	Transfer(ctx context.Context, caller domain.Address, id domain.TokenID, to domain.Address) error
	Approve(ctx context.Context, caller domain.Address, id domain.TokenID, approved domain.Address) error
	BalanceOf(ctx context.Context, owner domain.Address) (uint64, error)
	TokensOf(ctx context.Context, owner domain.Address, from domain.TokenID, limit int) ([]domain.TokenID, error)
	TotalSupply(ctx context.Context) (uint64, error)
	Metadata(ctx context.Context) (models.Metadata, error)
	Owner(ctx context.Context) (domain.Address, error)
}

// Handler exposes credential reads, transfers, and per-owner enumeration.
type Handler struct {
	ledger Service
	logger *slog.Logger
}

func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger", h.handleCollection)
	r.Route("/credentials/{tokenID}", func(r chi.Router) {
		r.Get("/", h.handleGetCredential)
		r.Get("/owner", h.handleGetOwner)
		r.Get("/expiration", h.handleGetExpiration)
		r.Get("/expired", h.handleGetExpired)
		r.Post("/transfer", h.handleTransfer)
		r.Post("/approve", h.handleApprove)
	})
	r.Route("/owners/{address}", func(r chi.Router) {
		r.Get("/credentials", h.handleListByOwner)
		r.Get("/balance", h.handleBalance)
	})
}

type collectionResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	BaseURI     string `json:"base_uri"`
	Owner       string `json:"owner"`
	TotalSupply uint64 `json:"total_supply"`
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meta, err := h.ledger.Metadata(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.ledger.Owner(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	total, err := h.ledger.TotalSupply(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, collectionResponse{
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		BaseURI:     meta.BaseURI,
		Owner:       owner.String(),
		TotalSupply: total,
	})
}

type credentialResponse struct {
	TokenID   uint64    `json:"token_id"`
	Owner     string    `json:"owner"`
	MintedAt  time.Time `json:"minted_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
	Approved  string    `json:"approved,omitempty"`
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	cred, err := h.ledger.Credential(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expired, err := h.ledger.IsExpired(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, credentialResponse{
		TokenID:   uint64(cred.ID),
		Owner:     cred.Owner.String(),
		MintedAt:  cred.MintedAt,
		ExpiresAt: cred.ExpiresAt,
		Expired:   expired,
		Approved:  cred.Approved.String(),
	})
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	cred, err := h.ledger.Credential(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"owner": cred.Owner.String()})
}

func (h *Handler) handleGetExpiration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	cred, err := h.ledger.Credential(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]time.Time{"expires_at": cred.ExpiresAt})
}

func (h *Handler) handleGetExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	expired, err := h.ledger.IsExpired(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"expired": expired})
}

// TransferRequest moves a credential between holders. From must be the
// current holder or its approved delegate.
type TransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r *TransferRequest) Validate() error {
	if r.From == "" {
		return dErrors.New(dErrors.CodeValidation, "from is required")
	}
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	return nil
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.ledger.Transfer(ctx, from, id, to); err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestID,
			"token_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"owner": to.String()})
}

// ApproveRequest delegates transfer rights for one credential. An empty
// approved address revokes the delegation.
type ApproveRequest struct {
	Owner    string `json:"owner"`
	Approved string `json:"approved"`
}

func (r *ApproveRequest) Validate() error {
	if r.Owner == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	return nil
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.ledger.Approve(ctx, owner, id, domain.Address(req.Approved)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"approved": req.Approved})
}

type enumerationResponse struct {
	Credentials []uint64 `json:"credentials"`
	NextCursor  *uint64  `json:"next_cursor,omitempty"`
}

// handleListByOwner pages through an owner's credentials in ascending
// identifier order. next_cursor is present iff a full page came back.
func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var cursor domain.TokenID
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor, err = domain.ParseTokenID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
	}

	ids, err := h.ledger.TokensOf(ctx, owner, cursor, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res := enumerationResponse{Credentials: make([]uint64, 0, len(ids))}
	for _, id := range ids {
		res.Credentials = append(res.Credentials, uint64(id))
	}
	if len(ids) == limit {
		next := uint64(ids[len(ids)-1]) + 1
		res.NextCursor = &next
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.ledger.BalanceOf(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"balance": balance})
}

func (h *Handler) tokenID(w http.ResponseWriter, r *http.Request) (domain.TokenID, bool) {
	id, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}
