package service

import (
	"context"
	"log/slog"
	"time"

	"proofgate/internal/audit"
	"proofgate/internal/orchestrator/store"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/platform/tracer"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

// Issuance path labels for metrics and responses.
const (
	PathProof       = "proof"
	PathAdminDirect = "admin_direct"
)

// IssueResult is the outcome of a successful issuance.
type IssueResult struct {
	TokenID domain.TokenID
	ProofID domain.ProofID
	Path    string
}

// AuditPublisher emits audit events for issuance decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the orchestrator service.
type Option func(*Service)

// Service drives the verify-then-issue protocol. It owns no credential or
// proof state of its own, only the component wiring; the verifier and
// ledger stay authoritative for theirs.
type Service struct {
	config   store.Store
	verifier Verifier
	ledger   Ledger
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
}

func NewService(cfg store.Store, verifier Verifier, ledger Ledger, opts ...Option) *Service {
	svc := &Service{
		config:   cfg,
		verifier: verifier,
		ledger:   ledger,
		tracer:   tracer.NewNoop(),
	}
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

// WithTracer configures a tracer for the issuance flow.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Initialize records the component wiring. It can succeed at most once.
func (s *Service) Initialize(ctx context.Context, cfg store.Config) error {
	if cfg.Admin.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "admin is required")
	}
	if err := s.config.Initialize(ctx, cfg); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "orchestrator initialized",
			"admin", cfg.Admin,
			"verifier", cfg.Verifier,
			"ledger", cfg.Ledger,
		)
	}
	return nil
}

// Config returns the component wiring.
func (s *Service) Config(ctx context.Context) (store.Config, error) {
	return s.config.Get(ctx)
}

// SetAdmin re-points the admin principal. Only the current admin may call.
func (s *Service) SetAdmin(ctx context.Context, caller, admin domain.Address) error {
	if admin.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "admin is required")
	}
	return s.updateConfig(ctx, caller, "admin", admin.String(), func(cfg *store.Config) {
		cfg.Admin = admin
	})
}

// SetVerifier re-points the verifier component address.
func (s *Service) SetVerifier(ctx context.Context, caller, addr domain.Address) error {
	return s.updateConfig(ctx, caller, "verifier", addr.String(), func(cfg *store.Config) {
		cfg.Verifier = addr
	})
}

// SetLedger re-points the ledger component address.
func (s *Service) SetLedger(ctx context.Context, caller, addr domain.Address) error {
	return s.updateConfig(ctx, caller, "ledger", addr.String(), func(cfg *store.Config) {
		cfg.Ledger = addr
	})
}

func (s *Service) updateConfig(ctx context.Context, caller domain.Address, field, value string, apply func(*store.Config)) error {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return err
	}
	if caller != cfg.Admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the admin may update configuration")
	}

	apply(&cfg)
	if err := s.config.Update(ctx, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store configuration")
	}

	s.emitAudit(ctx, audit.Event{
		Actor:    caller,
		Action:   audit.ActionConfigUpdated,
		Subject:  field,
		Decision: "updated",
		Reason:   value,
	})
	return nil
}

// Issue runs the proof-gated issuance protocol: verify the proof, reserve
// it, mint, and compensate by releasing the reservation if the mint fails.
//
// A resubmitted proof fails here with already_consumed. A retry after a
// failed mint succeeds: the earlier attempt released its reservation, so
// Verify reports already_consumed but Consume goes through.
func (s *Service) Issue(ctx context.Context, target domain.Address, expiresAt time.Time, keyBytes, proofBytes, publicInputs []byte) (IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue,
		tracer.String(tracer.AttrTarget, target.String()),
		tracer.String(tracer.AttrPath, PathProof),
	)
	var retErr error
	defer func() { span.End(retErr) }()

	if _, err := s.config.Get(ctx); err != nil {
		retErr = err
		return IssueResult{}, retErr
	}

	proofID, err := s.verify(ctx, keyBytes, proofBytes, publicInputs)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeAlreadyConsumed) {
		retErr = err
		return IssueResult{}, retErr
	}
	span.SetAttributes(tracer.String(tracer.AttrProofID, proofID.String()))

	// An already finalized identifier may still be consumable: a prior
	// attempt whose mint failed released its reservation. Consume is the
	// arbiter; genuine replays die here. The verifier's code survives the
	// wrap so replays still surface as already_consumed.
	if err := s.consume(ctx, proofID); err != nil {
		retErr = dErrors.WrapPreserving(err, dErrors.CodeInternal, "proof could not be reserved for issuance")
		return IssueResult{}, retErr
	}

	tokenID, err := s.mint(ctx, target, expiresAt)
	if err != nil {
		s.compensate(ctx, span, proofID, target, err)
		retErr = dErrors.Wrap(err, dErrors.CodeMintFailedAfterVerify, "credential mint failed after proof verification")
		return IssueResult{}, retErr
	}
	span.SetAttributes(tracer.Int64(tracer.AttrTokenID, int64(tokenID)))

	s.countIssued(PathProof)
	s.emitAudit(ctx, audit.Event{
		Actor:    target,
		Action:   audit.ActionCredentialIssued,
		Subject:  tokenID.String(),
		Decision: "issued",
		Reason:   proofID.String(),
	})
	span.AddEvent(tracer.EventAuditEmitted)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential issued",
			"token_id", tokenID,
			"proof_id", proofID,
			"target", target,
		)
	}

	return IssueResult{TokenID: tokenID, ProofID: proofID, Path: PathProof}, nil
}

// AdminMint issues a credential without proof verification. Reserved for
// the admin; every use is audited as a distinct action so the two issuance
// paths stay distinguishable in the trail.
func (s *Service) AdminMint(ctx context.Context, caller, target domain.Address, expiresAt time.Time) (IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdminMint,
		tracer.String(tracer.AttrTarget, target.String()),
		tracer.String(tracer.AttrPath, PathAdminDirect),
	)
	var retErr error
	defer func() { span.End(retErr) }()

	cfg, err := s.config.Get(ctx)
	if err != nil {
		retErr = err
		return IssueResult{}, retErr
	}
	if caller != cfg.Admin {
		retErr = dErrors.New(dErrors.CodeUnauthorized, "only the admin may mint directly")
		return IssueResult{}, retErr
	}

	tokenID, err := s.mint(ctx, target, expiresAt)
	if err != nil {
		retErr = err
		return IssueResult{}, retErr
	}
	span.SetAttributes(tracer.Int64(tracer.AttrTokenID, int64(tokenID)))

	s.countIssued(PathAdminDirect)
	s.emitAudit(ctx, audit.Event{
		Actor:    caller,
		Action:   audit.ActionCredentialAdminMinted,
		Subject:  tokenID.String(),
		Decision: "issued",
		Reason:   "admin direct mint for " + target.String(),
	})
	if s.logger != nil {
		s.logger.WarnContext(ctx, "credential minted without proof",
			"token_id", tokenID,
			"target", target,
			"admin", caller,
		)
	}

	return IssueResult{TokenID: tokenID, Path: PathAdminDirect}, nil
}

// IsVerified reports proof status through the orchestrator surface.
func (s *Service) IsVerified(ctx context.Context, id domain.ProofID) bool {
	return s.verifier.IsVerified(ctx, id)
}

// OwnerOf reads through to the ledger.
func (s *Service) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	return s.ledger.OwnerOf(ctx, id)
}

// GetExpiration reads through to the ledger.
func (s *Service) GetExpiration(ctx context.Context, id domain.TokenID) (time.Time, error) {
	return s.ledger.GetExpiration(ctx, id)
}

// IsExpired reads through to the ledger.
func (s *Service) IsExpired(ctx context.Context, id domain.TokenID) (bool, error) {
	return s.ledger.IsExpired(ctx, id)
}

// BalanceOf reads through to the ledger.
func (s *Service) BalanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	return s.ledger.BalanceOf(ctx, owner)
}

func (s *Service) verify(ctx context.Context, keyBytes, proofBytes, publicInputs []byte) (domain.ProofID, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify)
	proofID, err := s.verifier.Verify(ctx, keyBytes, proofBytes, publicInputs)
	span.End(err)
	return proofID, err
}

func (s *Service) consume(ctx context.Context, id domain.ProofID) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanConsume,
		tracer.String(tracer.AttrProofID, id.String()),
	)
	err := s.verifier.Consume(ctx, id)
	span.End(err)
	return err
}

func (s *Service) mint(ctx context.Context, target domain.Address, expiresAt time.Time) (domain.TokenID, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanMint,
		tracer.String(tracer.AttrTarget, target.String()),
	)
	tokenID, err := s.ledger.Mint(ctx, target, expiresAt)
	span.End(err)
	return tokenID, err
}

// compensate releases a consumed proof after a failed mint so the same
// proof can be retried. The release itself failing is logged, not
// surfaced: the caller already gets the mint failure.
func (s *Service) compensate(ctx context.Context, span tracer.Span, proofID domain.ProofID, target domain.Address, mintErr error) {
	if err := s.verifier.Release(ctx, proofID); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to release proof after failed mint",
				"proof_id", proofID,
				"error", err,
			)
		}
	} else {
		span.AddEvent(tracer.EventProofReleased,
			tracer.String(tracer.AttrProofID, proofID.String()),
		)
	}

	if s.metrics != nil {
		s.metrics.MintFailedAfterVerify.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Actor:    target,
		Action:   audit.ActionMintFailedAfterVerify,
		Subject:  proofID.String(),
		Decision: "failed",
		Reason:   mintErr.Error(),
	})
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "mint failed after proof verification",
			"proof_id", proofID,
			"target", target,
			"error", mintErr,
		)
	}
}

func (s *Service) countIssued(path string) {
	if s.metrics != nil {
		s.metrics.CredentialsIssued.WithLabelValues(path).Inc()
	}
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
