package service

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/sha3"

	"proofgate/internal/audit"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/verifier/models"
	"proofgate/internal/verifier/store"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	requesttime "proofgate/pkg/platform/middleware/requesttime"
)

// Checker runs the cryptographic proof check against a verification key.
// A nil return means the proof is valid; any error means it is not.
type Checker interface {
	Check(verificationKey, proof []byte, publicInputs []string) error
}

// AuditPublisher emits audit events for verifier lifecycle actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the verifier service.
type Option func(*Service)

// Service is the proof verification component. It owns the active
// verification key and the proof record set; the record set is append-only
// and doubles as the replay-prevention ledger.
type Service struct {
	store     store.Store
	admin     domain.Address
	principal domain.Address
	checker   Checker
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService creates a verifier service. Key registration is gated on the
// given admin principal.
func NewService(st store.Store, admin domain.Address, opts ...Option) *Service {
	svc := &Service{
		store:     st,
		admin:     admin,
		principal: "component:verifier",
		checker:   NewGroth16Checker(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithPrincipal sets the component address the verifier acts under. Audit
// events the verifier emits on its own behalf, such as proof rejections,
// are attributed to this principal so they stay queryable by actor.
func WithPrincipal(addr domain.Address) Option {
	return func(s *Service) { s.principal = addr }
}

// WithChecker replaces the cryptographic checker.
func WithChecker(c Checker) Option {
	return func(s *Service) { s.checker = c }
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

// RegisterKey validates and registers a verification key, superseding any
// prior key. Proofs prepared for a superseded key fail verification from
// that point on: soundness over convenience.
func (s *Service) RegisterKey(ctx context.Context, caller domain.Address, keyBytes []byte) (domain.KeyID, error) {
	if caller != s.admin {
		return "", dErrors.New(dErrors.CodeUnauthorized, "only the admin may register a verification key")
	}
	if err := ValidateKeyStructure(keyBytes); err != nil {
		return "", err
	}

	keyID := domain.NewKeyID(keccak256(keyBytes))
	key := models.VerificationKey{
		ID:           keyID,
		Bytes:        keyBytes,
		RegisteredAt: requesttime.Now(ctx),
	}
	if err := s.store.SetActiveKey(ctx, key); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification key")
	}

	if s.metrics != nil {
		s.metrics.KeysRegistered.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Actor:    caller,
		Action:   audit.ActionKeyRegistered,
		Subject:  keyID.String(),
		Decision: "registered",
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "verification key registered", "key_id", keyID)
	}
	return keyID, nil
}

// ActiveKeyID returns the identifier of the active verification key.
func (s *Service) ActiveKeyID(ctx context.Context) (domain.KeyID, error) {
	key, err := s.store.ActiveKey(ctx)
	if err != nil {
		return "", err
	}
	return key.ID, nil
}

// Verify checks a proof against the active key and records the outcome
// exactly once. The derived proof identifier is returned whenever it could
// be computed, including alongside an already_consumed error, so callers
// holding a reservation can correlate retries.
//
// Error cases: no_active_key if no key is registered, invalid_key if the
// supplied key does not match the active one, malformed_proof if the proof
// or public inputs fail to decode, already_consumed if this identifier was
// finalized before, verification_failed if the cryptographic check says no.
func (s *Service) Verify(ctx context.Context, keyBytes, proofBytes, publicInputs []byte) (domain.ProofID, error) {
	active, err := s.store.ActiveKey(ctx)
	if err != nil {
		return "", err
	}
	if domain.NewKeyID(keccak256(keyBytes)) != active.ID {
		return "", dErrors.New(dErrors.CodeInvalidKey, "verification key does not match the active key")
	}

	signals, err := DecodePublicInputs(publicInputs)
	if err != nil {
		s.countVerify("malformed")
		return "", err
	}
	if err := ValidateProofStructure(proofBytes); err != nil {
		s.countVerify("malformed")
		return "", err
	}

	proofID := domain.NewProofID(keccak256(active.ID.Bytes(), proofBytes, publicInputs))

	if _, err := s.store.GetProof(ctx, proofID); err == nil {
		s.countVerify("replayed")
		return proofID, dErrors.New(dErrors.CodeAlreadyConsumed, "proof identifier already finalized")
	}

	rec := models.ProofRecord{
		ID:         proofID,
		KeyID:      active.ID,
		RecordedAt: requesttime.Now(ctx),
	}

	checkErr := s.checker.Check(active.Bytes, proofBytes, signals)
	if checkErr != nil {
		rec.Status = models.StatusRejected
	} else {
		rec.Status = models.StatusVerified
	}

	if err := s.store.InsertProof(ctx, rec); err != nil {
		// Lost a race with a concurrent identical submission; the first
		// insert won and this one is a replay.
		s.countVerify("replayed")
		return proofID, dErrors.Wrap(err, dErrors.CodeAlreadyConsumed, "proof identifier already finalized")
	}

	if checkErr != nil {
		s.countVerify("rejected")
		s.emitAudit(ctx, audit.Event{
			Actor:    s.principal,
			Action:   audit.ActionProofRejected,
			Subject:  proofID.String(),
			Decision: "rejected",
			Reason:   checkErr.Error(),
		})
		if s.logger != nil {
			s.logger.WarnContext(ctx, "proof rejected", "proof_id", proofID, "error", checkErr)
		}
		return proofID, dErrors.New(dErrors.CodeVerificationFailed, "proof is not valid under the active key")
	}

	s.countVerify("verified")
	return proofID, nil
}

// Consume marks a verified proof as used for issuance. Exactly one Consume
// can succeed per proof identifier unless a Release intervenes.
func (s *Service) Consume(ctx context.Context, id domain.ProofID) error {
	return s.store.ConsumeProof(ctx, id)
}

// Release is the compensating action for a mint that failed after
// verification: it returns the proof to a consumable state.
func (s *Service) Release(ctx context.Context, id domain.ProofID) error {
	return s.store.ReleaseProof(ctx, id)
}

// Proof returns the recorded outcome for a proof identifier.
func (s *Service) Proof(ctx context.Context, id domain.ProofID) (models.ProofRecord, error) {
	return s.store.GetProof(ctx, id)
}

// IsVerified reports whether a proof identifier has passed verification.
// It never fails: unknown identifiers are simply not verified.
func (s *Service) IsVerified(ctx context.Context, id domain.ProofID) bool {
	rec, err := s.store.GetProof(ctx, id)
	if err != nil {
		return false
	}
	return rec.Verified()
}

// TotalVerified returns the number of proofs that passed verification.
func (s *Service) TotalVerified(ctx context.Context) (uint64, error) {
	return s.store.CountVerified(ctx)
}

func (s *Service) countVerify(result string) {
	if s.metrics != nil {
		s.metrics.ProofsVerified.WithLabelValues(result).Inc()
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

// keccak256 hashes the concatenation of parts. Key and proof identifiers
// are content hashes so they can be recomputed by any party holding the
// same bytes.
func keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var digest [32]byte
	h.Sum(digest[:0])
	return digest
}
