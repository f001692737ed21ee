package repository

import (
	"context"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

// OrderStore persists the order ledger.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context) ([]*model.Order, error)
}

// PolicyStore persists the singleton deployment policy.
type PolicyStore interface {
	// InitPolicy creates the singleton; fails with a conflict if it exists.
	InitPolicy(ctx context.Context, p *model.PolicyConfig) error
	GetPolicy(ctx context.Context) (*model.PolicyConfig, error)
}

// BalanceStore mirrors vault balances for restart recovery. Write-through is
// best-effort; the bank remains the source of truth while running.
type BalanceStore interface {
	SaveBalances(ctx context.Context, entries map[string]vault.BalanceEntry) error
	LoadBalances(ctx context.Context) (map[string]vault.BalanceEntry, error)
}

// HolderCounter reads the externally maintained count of distinct holders.
type HolderCounter interface {
	HolderCount(ctx context.Context) (uint64, error)
}
