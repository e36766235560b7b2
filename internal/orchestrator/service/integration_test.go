package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	ledgermodels "proofgate/internal/ledger/models"
	ledgerservice "proofgate/internal/ledger/service"
	ledgerstore "proofgate/internal/ledger/store"
	"proofgate/internal/orchestrator/store"
	verifierservice "proofgate/internal/verifier/service"
	verifierstore "proofgate/internal/verifier/store"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

const (
	issuerPrincipal = domain.Address("component:orchestrator")
	secondTarget    = domain.Address("GBOB")
)

// Structurally sound groth16 documents; acceptChecker decides validity.
const flowVK = `{
	"protocol": "groth16",
	"vk_alpha_1": ["1", "2", "1"],
	"vk_beta_2": [["1", "2"], ["3", "4"], ["1", "0"]],
	"vk_gamma_2": [["1", "2"], ["3", "4"], ["1", "0"]],
	"vk_delta_2": [["1", "2"], ["3", "4"], ["1", "0"]],
	"IC": [["1", "2", "1"], ["3", "4", "1"]]
}`

const flowProof = `{
	"pi_a": ["1", "2", "1"],
	"pi_b": [["1", "2"], ["3", "4"], ["1", "0"]],
	"pi_c": ["5", "6", "1"],
	"protocol": "groth16"
}`

type acceptChecker struct {
	err error
}

func (c *acceptChecker) Check(_, _ []byte, _ []string) error { return c.err }

// IssuanceFlowSuite composes the orchestrator with the real verifier and
// ledger services, so the protocol properties that depend on their actual
// state machines hold end to end rather than against stubs.
type IssuanceFlowSuite struct {
	suite.Suite
	checker  *acceptChecker
	verifier *verifierservice.Service
	ledger   *ledgerservice.Service
	svc      *Service
	ctx      context.Context
	expires  time.Time
}

func TestIssuanceFlowSuite(t *testing.T) {
	suite.Run(t, new(IssuanceFlowSuite))
}

func (s *IssuanceFlowSuite) SetupTest() {
	s.ctx = context.Background()
	s.expires = time.Now().Add(24 * time.Hour)

	s.checker = &acceptChecker{}
	s.verifier = verifierservice.NewService(verifierstore.NewInMemoryStore(), admin,
		verifierservice.WithChecker(s.checker),
	)
	s.ledger = ledgerservice.NewService(ledgerstore.NewInMemoryStore())
	s.Require().NoError(s.ledger.Initialize(s.ctx, issuerPrincipal, ledgermodels.Metadata{
		Name:   "Identity Credential",
		Symbol: "IDC",
	}))

	s.svc = NewService(store.NewInMemoryStore(), s.verifier,
		NewLedgerAdapter(s.ledger, issuerPrincipal),
	)
	s.Require().NoError(s.svc.Initialize(s.ctx, store.Config{
		Admin:    admin,
		Verifier: "component:verifier",
		Ledger:   "component:ledger",
	}))

	_, err := s.verifier.RegisterKey(s.ctx, admin, []byte(flowVK))
	s.Require().NoError(err)
}

// issueWith submits the canonical proof with the given public inputs;
// distinct inputs yield distinct proof identifiers.
func (s *IssuanceFlowSuite) issueWith(to domain.Address, inputs string) (IssueResult, error) {
	return s.svc.Issue(s.ctx, to, s.expires, []byte(flowVK), []byte(flowProof), []byte(inputs))
}

func (s *IssuanceFlowSuite) TestDistinctProofsMintSequentialTokens() {
	first, err := s.issueWith(target, `["1"]`)
	s.Require().NoError(err)
	second, err := s.issueWith(secondTarget, `["2"]`)
	s.Require().NoError(err)

	s.Equal(domain.TokenID(0), first.TokenID)
	s.Equal(domain.TokenID(1), second.TokenID)
	s.NotEqual(first.ProofID, second.ProofID)

	owner, err := s.ledger.OwnerOf(s.ctx, first.TokenID)
	s.Require().NoError(err)
	s.Equal(target, owner)
	owner, err = s.ledger.OwnerOf(s.ctx, second.TokenID)
	s.Require().NoError(err)
	s.Equal(secondTarget, owner)
}

func (s *IssuanceFlowSuite) TestTokenSequenceSpansBothMintPaths() {
	first, err := s.issueWith(target, `["1"]`)
	s.Require().NoError(err)

	direct, err := s.svc.AdminMint(s.ctx, admin, secondTarget, s.expires)
	s.Require().NoError(err)

	second, err := s.issueWith(target, `["2"]`)
	s.Require().NoError(err)

	// One ledger sequence: both paths draw from it without gaps.
	s.Equal(domain.TokenID(0), first.TokenID)
	s.Equal(domain.TokenID(1), direct.TokenID)
	s.Equal(domain.TokenID(2), second.TokenID)

	total, err := s.ledger.TotalSupply(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), total)
}

func (s *IssuanceFlowSuite) TestReplayStoppedByRealVerifier() {
	first, err := s.issueWith(target, `["1"]`)
	s.Require().NoError(err)

	_, err = s.issueWith(secondTarget, `["1"]`)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyConsumed))

	s.True(s.svc.IsVerified(s.ctx, first.ProofID))
	total, err := s.ledger.TotalSupply(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
}

func (s *IssuanceFlowSuite) TestRejectedProofMintsNothing() {
	s.checker.err = dErrors.New(dErrors.CodeInternal, "pairing check failed")

	_, err := s.issueWith(target, `["1"]`)
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationFailed))

	balance, err := s.ledger.BalanceOf(s.ctx, target)
	s.Require().NoError(err)
	s.Zero(balance)
	total, err := s.ledger.TotalSupply(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)
}
