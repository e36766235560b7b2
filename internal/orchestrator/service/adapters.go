package service

import (
	"context"
	"time"

	ledgerservice "proofgate/internal/ledger/service"
	"proofgate/pkg/domain"
)

// LedgerAdapter binds the credential ledger to the orchestrator's Ledger
// port, minting under the orchestrator's own principal. The ledger is
// initialized with that principal as its owner, so orchestrated mints
// pass its owner gate while direct callers do not.
type LedgerAdapter struct {
	svc       *ledgerservice.Service
	principal domain.Address
}

func NewLedgerAdapter(svc *ledgerservice.Service, principal domain.Address) *LedgerAdapter {
	return &LedgerAdapter{svc: svc, principal: principal}
}

func (a *LedgerAdapter) Mint(ctx context.Context, to domain.Address, expiresAt time.Time) (domain.TokenID, error) {
	return a.svc.Mint(ctx, a.principal, to, expiresAt)
}

func (a *LedgerAdapter) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Address, error) {
	return a.svc.OwnerOf(ctx, id)
}

func (a *LedgerAdapter) GetExpiration(ctx context.Context, id domain.TokenID) (time.Time, error) {
	return a.svc.GetExpiration(ctx, id)
}

func (a *LedgerAdapter) IsExpired(ctx context.Context, id domain.TokenID) (bool, error) {
	return a.svc.IsExpired(ctx, id)
}

func (a *LedgerAdapter) BalanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	return a.svc.BalanceOf(ctx, owner)
}
