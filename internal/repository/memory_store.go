package repository

import (
	"context"
	"sync"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

// MemoryStore keeps the ledger in process memory. Used by unit tests and as
// a fallback when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]model.Order
	orderIDs []string // creation order
	policy   *model.PolicyConfig
	balances map[string]vault.BalanceEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]model.Order),
		balances: make(map[string]vault.BalanceEntry),
	}
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return apperrors.Newf(apperrors.ErrConflict, "order %s already exists", o.ID)
	}
	s.orders[o.ID] = *o
	s.orderIDs = append(s.orderIDs, o.ID)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NewNotFound("order " + id + " not found")
	}
	return &o, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return apperrors.NewNotFound("order " + o.ID + " not found")
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		o := s.orders[id]
		out = append(out, &o)
	}
	return out, nil
}

func (s *MemoryStore) InitPolicy(ctx context.Context, p *model.PolicyConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy != nil {
		return apperrors.Newf(apperrors.ErrConflict, "policy config already initialized by %s", s.policy.Owner)
	}
	cp := *p
	s.policy = &cp
	return nil
}

func (s *MemoryStore) GetPolicy(ctx context.Context) (*model.PolicyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.policy == nil {
		return nil, apperrors.NewNotFound("policy config not initialized")
	}
	cp := *s.policy
	return &cp, nil
}

func (s *MemoryStore) SaveBalances(ctx context.Context, entries map[string]vault.BalanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range entries {
		s.balances[name] = e
	}
	return nil
}

func (s *MemoryStore) LoadBalances(ctx context.Context) (map[string]vault.BalanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]vault.BalanceEntry, len(s.balances))
	for name, e := range s.balances {
		out[name] = e
	}
	return out, nil
}
