package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"proofgate/internal/audit"
	"proofgate/internal/ledger/models"
	"proofgate/internal/ledger/store"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
	requesttime "proofgate/pkg/platform/middleware/requesttime"
)

const (
	orchestrator = domain.Address("GORCHESTRATOR")
	alice        = domain.Address("GALICE")
	bob          = domain.Address("GBOB")
	carol        = domain.Address("GCAROL")
)

type LedgerSuite struct {
	suite.Suite
	events *audit.InMemoryStore
	svc    *Service
	ctx    context.Context
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.events = audit.NewInMemoryStore()
	s.svc = NewService(store.NewInMemoryStore(),
		WithAuditor(audit.NewPublisher(s.events)),
	)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
}

func (s *LedgerSuite) initialize() {
	err := s.svc.Initialize(s.ctx, orchestrator, models.Metadata{
		Name:    "Identity Credential",
		Symbol:  "IDC",
		BaseURI: "https://credentials.example/",
	})
	s.Require().NoError(err)
}

func (s *LedgerSuite) mint(to domain.Address, expiresAt time.Time) domain.TokenID {
	id, err := s.svc.Mint(s.ctx, orchestrator, to, expiresAt)
	s.Require().NoError(err)
	return id
}

func (s *LedgerSuite) TestInitializeOnce() {
	s.initialize()
	err := s.svc.Initialize(s.ctx, bob, models.Metadata{})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))
}

func (s *LedgerSuite) TestInitializeRequiresOwner() {
	err := s.svc.Initialize(s.ctx, "", models.Metadata{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *LedgerSuite) TestOwnerAndMetadata() {
	s.initialize()

	owner, err := s.svc.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal(orchestrator, owner)

	meta, err := s.svc.Metadata(s.ctx)
	s.Require().NoError(err)
	s.Equal("IDC", meta.Symbol)
}

func (s *LedgerSuite) TestMintGatedOnOwner() {
	s.initialize()

	_, err := s.svc.Mint(s.ctx, alice, alice, s.now.Add(time.Hour))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	total, _ := s.svc.TotalSupply(s.ctx)
	s.Zero(total)
}

func (s *LedgerSuite) TestMintBeforeInitialize() {
	_, err := s.svc.Mint(s.ctx, orchestrator, alice, s.now.Add(time.Hour))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *LedgerSuite) TestMintAssignsSequentialIDs() {
	s.initialize()

	s.Equal(domain.TokenID(0), s.mint(alice, s.now.Add(time.Hour)))
	s.Equal(domain.TokenID(1), s.mint(bob, s.now.Add(time.Hour)))

	total, err := s.svc.TotalSupply(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), total)
}

func (s *LedgerSuite) TestMintWithPastExpiration() {
	s.initialize()

	// Expiration is informational: a mint dated in the past still succeeds,
	// the credential simply reads back as expired.
	id := s.mint(alice, s.now.Add(-time.Hour))

	expired, err := s.svc.IsExpired(s.ctx, id)
	s.Require().NoError(err)
	s.True(expired)

	owner, err := s.svc.OwnerOf(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(alice, owner)
}

func (s *LedgerSuite) TestExpirationBoundary() {
	s.initialize()
	id := s.mint(alice, s.now)

	// The boundary instant itself counts as expired.
	expired, err := s.svc.IsExpired(s.ctx, id)
	s.Require().NoError(err)
	s.True(expired)
}

func (s *LedgerSuite) TestGetExpiration() {
	s.initialize()
	expiresAt := s.now.Add(48 * time.Hour)
	id := s.mint(alice, expiresAt)

	got, err := s.svc.GetExpiration(s.ctx, id)
	s.Require().NoError(err)
	s.True(expiresAt.Equal(got))
}

func (s *LedgerSuite) TestReadsOnUnknownID() {
	s.initialize()

	_, err := s.svc.OwnerOf(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.GetExpiration(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.IsExpired(s.ctx, 42)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LedgerSuite) TestBalanceAndEnumeration() {
	s.initialize()
	s.mint(alice, s.now.Add(time.Hour)) // 0
	s.mint(bob, s.now.Add(time.Hour))   // 1
	s.mint(alice, s.now.Add(time.Hour)) // 2

	balance, err := s.svc.BalanceOf(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(uint64(2), balance)

	balance, err = s.svc.BalanceOf(s.ctx, carol)
	s.Require().NoError(err)
	s.Zero(balance)

	tokens, err := s.svc.TokensOf(s.ctx, alice, 0, 0)
	s.Require().NoError(err)
	s.Equal([]domain.TokenID{0, 2}, tokens)
}

func (s *LedgerSuite) TestTransferByHolder() {
	s.initialize()
	expiresAt := s.now.Add(time.Hour)
	id := s.mint(alice, expiresAt)

	s.Require().NoError(s.svc.Transfer(s.ctx, alice, id, bob))

	owner, _ := s.svc.OwnerOf(s.ctx, id)
	s.Equal(bob, owner)

	// Expiration travels with the credential unchanged.
	got, _ := s.svc.GetExpiration(s.ctx, id)
	s.True(expiresAt.Equal(got))

	events, err := s.events.ListByActor(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionCredentialTransferred, events[0].Action)
}

func (s *LedgerSuite) TestTransferByStranger() {
	s.initialize()
	id := s.mint(alice, s.now.Add(time.Hour))

	err := s.svc.Transfer(s.ctx, bob, id, bob)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *LedgerSuite) TestTransferByApprovedDelegate() {
	s.initialize()
	id := s.mint(alice, s.now.Add(time.Hour))

	s.Require().NoError(s.svc.Approve(s.ctx, alice, id, carol))
	s.Require().NoError(s.svc.Transfer(s.ctx, carol, id, bob))

	owner, _ := s.svc.OwnerOf(s.ctx, id)
	s.Equal(bob, owner)

	// The approval does not survive the transfer.
	err := s.svc.Transfer(s.ctx, carol, id, carol)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *LedgerSuite) TestApproveOnlyByHolder() {
	s.initialize()
	id := s.mint(alice, s.now.Add(time.Hour))

	err := s.svc.Approve(s.ctx, bob, id, carol)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *LedgerSuite) TestApproveRevocation() {
	s.initialize()
	id := s.mint(alice, s.now.Add(time.Hour))

	s.Require().NoError(s.svc.Approve(s.ctx, alice, id, carol))
	s.Require().NoError(s.svc.Approve(s.ctx, alice, id, ""))

	err := s.svc.Transfer(s.ctx, carol, id, carol)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *LedgerSuite) TestExpiredCredentialStillTransfers() {
	s.initialize()
	id := s.mint(alice, s.now.Add(-time.Hour))

	s.Require().NoError(s.svc.Transfer(s.ctx, alice, id, bob))

	owner, _ := s.svc.OwnerOf(s.ctx, id)
	s.Equal(bob, owner)
}
