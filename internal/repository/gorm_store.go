package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

const policySingletonID = 1

// GormStore backs the order ledger, policy singleton and balance mirror with
// a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateOrder(ctx context.Context, o *model.Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return apperrors.New(apperrors.ErrInternal, "creating order", err)
	}
	return nil
}

func (s *GormStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("order " + id + " not found")
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "loading order", err)
	}
	return &o, nil
}

func (s *GormStore) UpdateOrder(ctx context.Context, o *model.Order) error {
	// Save writes every field; the engine holds the per-order lock, so no
	// concurrent writer can interleave.
	if err := s.db.WithContext(ctx).Save(o).Error; err != nil {
		return apperrors.New(apperrors.ErrInternal, "updating order", err)
	}
	return nil
}

func (s *GormStore) ListOrders(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	if err := s.db.WithContext(ctx).Order("created_at").Find(&orders).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "listing orders", err)
	}
	return orders, nil
}

func (s *GormStore) InitPolicy(ctx context.Context, p *model.PolicyConfig) error {
	p.ID = policySingletonID
	err := s.db.WithContext(ctx).Create(p).Error
	if err != nil {
		var existing model.PolicyConfig
		if lookupErr := s.db.WithContext(ctx).First(&existing, policySingletonID).Error; lookupErr == nil {
			return apperrors.Newf(apperrors.ErrConflict, "policy config already initialized by %s", existing.Owner)
		}
		return apperrors.New(apperrors.ErrInternal, "initializing policy config", err)
	}
	return nil
}

func (s *GormStore) GetPolicy(ctx context.Context) (*model.PolicyConfig, error) {
	var p model.PolicyConfig
	err := s.db.WithContext(ctx).First(&p, policySingletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("policy config not initialized")
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "loading policy config", err)
	}
	return &p, nil
}

func (s *GormStore) SaveBalances(ctx context.Context, entries map[string]vault.BalanceEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]model.Balance, 0, len(entries))
	for name, e := range entries {
		rows = append(rows, model.Balance{
			Name:      name,
			Owner:     e.Owner,
			Amount:    e.Amount,
			UpdatedAt: time.Now().UTC(),
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "amount", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return apperrors.New(apperrors.ErrInternal, "saving balances", err)
	}
	return nil
}

func (s *GormStore) LoadBalances(ctx context.Context) (map[string]vault.BalanceEntry, error) {
	var rows []model.Balance
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "loading balances", err)
	}
	out := make(map[string]vault.BalanceEntry, len(rows))
	for _, r := range rows {
		out[r.Name] = vault.BalanceEntry{Owner: r.Owner, Amount: r.Amount}
	}
	return out, nil
}
