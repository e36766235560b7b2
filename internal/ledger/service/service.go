package service

import (
	"context"
	"log/slog"
	"time"

	"proofgate/internal/audit"
	"proofgate/internal/ledger/models"
	"proofgate/internal/ledger/store"
	"proofgate/internal/platform/metrics"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	requesttime "proofgate/pkg/platform/middleware/requesttime"
)

// AuditPublisher emits audit events for ledger lifecycle actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the ledger service.
type Option func(*Service)

// Service is the credential ledger. Only the collection owner set at
// initialization may mint; ownership transfers are open to holders and
// their approved delegates.
type Service struct {
	store   store.Store
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(st store.Store, opts ...Option) *Service {
	svc := &Service{store: st}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithAuditor configures an audit publisher for the service.
func WithAuditor(auditor AuditPublisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

// WithMetrics configures Prometheus metrics for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Initialize sets the collection owner and metadata. It can succeed at most
// once for the lifetime of the ledger.
func (s *Service) Initialize(ctx context.Context, owner domain.Address, meta models.Metadata) error {
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if err := s.store.Initialize(ctx, store.State{Owner: owner, Metadata: meta}); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ledger initialized", "owner", owner, "symbol", meta.Symbol)
	}
	return nil
}

// Owner returns the collection owner.
func (s *Service) Owner(ctx context.Context) (domain.Address, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return "", err
	}
	return state.Owner, nil
}

// Metadata returns the collection metadata.
func (s *Service) Metadata(ctx context.Context) (models.Metadata, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return models.Metadata{}, err
	}
	return state.Metadata, nil
}

// Mint issues a new credential to the given address. Only the collection
// owner may mint. The expiration is recorded as supplied; a timestamp in
// the past still mints, it just reads back as expired.
func (s *Service) Mint(ctx context.Context, caller, to domain.Address, expiresAt time.Time) (domain.TokenID, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return 0, err
	}
	if caller != state.Owner {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "only the ledger owner may mint")
	}
	if to.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "recipient is required")
	}

	id, err := s.store.Insert(ctx, models.Credential{
		Owner:     to,
		MintedAt:  requesttime.Now(ctx),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential minted", "token_id", id, "owner", to)
	}
	return id, nil
}

// Credential returns the full record for a token identifier.
func (s *Service) Credential(ctx context.Context, id domain.TokenID) (models.Credential, error) {
	return s.store.Get(ctx, id)
}

// OwnerOf returns the current holder of a credential.
func (s *Service) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	cred, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return cred.Owner, nil
}

// GetExpiration returns the recorded expiration of a credential.
func (s *Service) GetExpiration(ctx context.Context, id domain.TokenID) (time.Time, error) {
	cred, err := s.store.Get(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return cred.ExpiresAt, nil
}

// IsExpired reports whether a credential is past its expiration. Unknown
// identifiers are an error, not "expired".
func (s *Service) IsExpired(ctx context.Context, id domain.TokenID) (bool, error) {
	cred, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return cred.IsExpired(requesttime.Now(ctx)), nil
}

// BalanceOf returns the number of credentials held by an address. Unknown
// addresses hold zero.
func (s *Service) BalanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	return s.store.CountByOwner(ctx, owner)
}

// TokensOf lists credential identifiers held by an address in ascending
// order, starting at from, up to limit. A zero limit means no bound.
func (s *Service) TokensOf(ctx context.Context, owner domain.Address, from domain.TokenID, limit int) ([]domain.TokenID, error) {
	return s.store.ListByOwner(ctx, owner, from, limit)
}

// TotalSupply returns the number of credentials ever minted.
func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	return s.store.Total(ctx)
}

// Transfer moves a credential to a new holder. The caller must be the
// current holder or its approved delegate. Expiration travels with the
// credential unchanged; any approval is cleared.
func (s *Service) Transfer(ctx context.Context, caller domain.Address, id domain.TokenID, to domain.Address) error {
	cred, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !cred.CanTransfer(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller may not transfer this credential")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}

	from := cred.Owner
	cred.Owner = to
	cred.Approved = ""
	if err := s.store.Update(ctx, cred); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store transfer")
	}

	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Actor:    caller,
		Action:   audit.ActionCredentialTransferred,
		Subject:  cred.ID.String(),
		Decision: "transferred",
		Reason:   string(from) + " -> " + string(to),
	})
	return nil
}

// Approve lets the holder delegate transfer rights for one credential to
// another address. An empty address revokes the delegation.
func (s *Service) Approve(ctx context.Context, caller domain.Address, id domain.TokenID, approved domain.Address) error {
	cred, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if caller != cred.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the holder may approve")
	}

	cred.Approved = approved
	if err := s.store.Update(ctx, cred); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store approval")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
		)
	}
}
