// Package engine holds the tranche-execution state machine: order intake,
// time-gated tranche settlement, and the rebase signal generator.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
	"github.com/unwindlabs/tranchegate/internal/pkg/metrics"
	"github.com/unwindlabs/tranchegate/internal/repository"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

// MechanismIdentity owns the holding vault and settlement reserve. The
// engine holds the only transfer authority issued for it.
const MechanismIdentity = "tranchegate"

// AssetAccount names an identity's balance in the asset being unwound.
func AssetAccount(id string) string { return "asset:" + id }

// AnchorAccount names an identity's balance in the counter asset.
func AnchorAccount(id string) string { return "anchor:" + id }

// Engine advances orders through the unwind ledger. All settlement transfers
// are authorized by the mechanism's own vault authority, never by sellers or
// keepers.
type Engine struct {
	bank     *vault.Bank
	auth     vault.Authority
	orders   repository.OrderStore
	policy   repository.PolicyStore
	balances repository.BalanceStore
	clock    vault.Clock

	holdingAcct string
	reserveAcct string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-order serialization
}

type Options struct {
	Orders   repository.OrderStore
	Policy   repository.PolicyStore
	Balances repository.BalanceStore // optional write-through mirror
	Clock    vault.Clock
	Holding  string
	Reserve  string
}

func New(bank *vault.Bank, opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = vault.SystemClock()
	}
	if opts.Holding == "" {
		opts.Holding = "vault:holding"
	}
	if opts.Reserve == "" {
		opts.Reserve = "vault:anchor"
	}
	if err := bank.Open(opts.Holding, MechanismIdentity); err != nil {
		return nil, err
	}
	if err := bank.Open(opts.Reserve, MechanismIdentity); err != nil {
		return nil, err
	}
	return &Engine{
		bank:        bank,
		auth:        bank.Issue(MechanismIdentity),
		orders:      opts.Orders,
		policy:      opts.Policy,
		balances:    opts.Balances,
		clock:       opts.Clock,
		holdingAcct: opts.Holding,
		reserveAcct: opts.Reserve,
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

// InitPolicy creates the singleton policy record with defaults for any
// unset field. Fails with a conflict once initialized.
func (e *Engine) InitPolicy(ctx context.Context, owner string, interval int64, maxTxBP uint64) (*model.PolicyConfig, error) {
	if owner == "" {
		return nil, apperrors.NewInvalidRequest("owner is required")
	}
	if interval <= 0 {
		interval = model.DefaultTrancheInterval
	}
	if maxTxBP == 0 {
		maxTxBP = model.DefaultMaxTxPercentBP
	}
	p := &model.PolicyConfig{
		Owner:           owner,
		TrancheInterval: interval,
		MaxTxPercentBP:  maxTxBP,
	}
	if err := e.policy.InitPolicy(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("policy config initialized", "owner", owner, "tranche_interval", interval)
	return p, nil
}

// Policy reads the singleton policy record.
func (e *Engine) Policy(ctx context.Context) (*model.PolicyConfig, error) {
	return e.policy.GetPolicy(ctx)
}

// Submit creates an order and deposits its total into the holding vault as
// one atomic unit: if either the record write or the transfer fails, neither
// effect is observed.
func (e *Engine) Submit(ctx context.Context, seller string, total, tranche uint64) (*model.Order, error) {
	if seller == "" {
		return nil, apperrors.NewInvalidRequest("seller is required")
	}
	if total == 0 {
		return nil, apperrors.NewInvalidRequest("total_amount must be positive")
	}
	if tranche == 0 {
		return nil, apperrors.NewInvalidRequest("tranche_amount must be positive")
	}
	if tranche > total {
		return nil, apperrors.NewInvalidRequest("tranche_amount cannot exceed total_amount")
	}

	now := e.clock.Now()
	order := &model.Order{
		ID:           uuid.NewString(),
		Seller:       seller,
		Total:        total,
		Remaining:    total,
		Tranche:      tranche,
		StartTime:    now,
		LastExecuted: 0,
		Active:       true,
	}

	// The deposit moves under the seller's own authority; the bank lock is
	// held until the ledger write lands, so the two commit together.
	tx := e.bank.Begin()
	defer tx.Rollback()
	if err := tx.Transfer(AssetAccount(seller), e.holdingAcct, e.bank.Issue(seller), total); err != nil {
		return nil, err
	}
	if err := e.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.OrdersSubmitted.Inc()
	logger.Info("order submitted", "order_id", order.ID, "seller", seller, "total", total, "tranche", tranche)
	e.persistBalances(ctx)
	return order, nil
}

// ExecuteTranche releases exactly one tranche of an order: pays the keeper
// reward from the holding vault, pays the proposed counter-asset amount from
// the settlement reserve to the seller, and advances the ledger. Any failed
// precondition aborts with no effect.
func (e *Engine) ExecuteTranche(ctx context.Context, orderID, keeper string, expectedAnchorOut uint64) (*model.ExecuteTrancheResponse, error) {
	if keeper == "" {
		return nil, apperrors.NewInvalidRequest("keeper is required")
	}

	lock := e.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Active || order.Remaining == 0 {
		metrics.TrancheRejects.WithLabelValues("order_inactive").Inc()
		return nil, apperrors.Newf(apperrors.ErrOrderInactive, "order %s is inactive or finished", orderID)
	}

	pol, err := e.policy.GetPolicy(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if order.LastExecuted != 0 && now < order.LastExecuted+pol.TrancheInterval {
		metrics.TrancheRejects.WithLabelValues("not_ready").Inc()
		return nil, apperrors.Newf(apperrors.ErrTrancheNotReady,
			"tranche not ready: next execution at %d, now %d", order.LastExecuted+pol.TrancheInterval, now)
	}

	reserveBal, err := e.bank.Balance(e.reserveAcct)
	if err != nil {
		return nil, err
	}
	if reserveBal < expectedAnchorOut {
		metrics.TrancheRejects.WithLabelValues("insufficient_anchor").Inc()
		return nil, apperrors.Newf(apperrors.ErrInsufficientAnchor,
			"settlement reserve holds %d, need %d", reserveBal, expectedAnchorOut)
	}

	effective := order.EffectiveTranche()
	if effective > order.Remaining {
		// Unreachable given the min() capping; abort rather than wrap.
		return nil, apperrors.Newf(apperrors.ErrInternal,
			"invariant violation: tranche %d exceeds remaining %d", effective, order.Remaining)
	}
	reward := effective / 10

	if err := e.bank.Open(AssetAccount(keeper), keeper); err != nil {
		return nil, err
	}
	if err := e.bank.Open(AnchorAccount(order.Seller), order.Seller); err != nil {
		return nil, err
	}

	tx := e.bank.Begin()
	defer tx.Rollback()
	if err := tx.Transfer(e.holdingAcct, AssetAccount(keeper), e.auth, reward); err != nil {
		return nil, err
	}
	if err := tx.Transfer(e.reserveAcct, AnchorAccount(order.Seller), e.auth, expectedAnchorOut); err != nil {
		return nil, err
	}

	order.Remaining -= effective
	order.LastExecuted = now
	if order.Remaining == 0 {
		order.Active = false
	}
	if err := e.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.TranchesExecuted.Inc()
	metrics.KeeperRewardsPaid.Add(float64(reward))
	logger.Info("tranche executed",
		"order_id", order.ID, "keeper", keeper,
		"released", effective, "reward", reward, "anchor_out", expectedAnchorOut,
		"remaining", order.Remaining)
	e.persistBalances(ctx)

	return &model.ExecuteTrancheResponse{
		OrderID:      order.ID,
		Released:     effective,
		Reward:       reward,
		AnchorOut:    expectedAnchorOut,
		Remaining:    order.Remaining,
		Active:       order.Active,
		LastExecuted: order.LastExecuted,
	}, nil
}

// Order returns one ledger record.
func (e *Engine) Order(ctx context.Context, id string) (*model.Order, error) {
	return e.orders.GetOrder(ctx, id)
}

// Orders lists the ledger; readyOnly filters to orders whose interval gate
// has elapsed.
func (e *Engine) Orders(ctx context.Context, readyOnly bool) ([]*model.Order, error) {
	orders, err := e.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if !readyOnly {
		return orders, nil
	}
	pol, err := e.policy.GetPolicy(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	out := make([]*model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Ready(now, pol.TrancheInterval) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Deposit credits an external balance. Owner-gated at the HTTP layer; used
// to fund seller balances and the settlement reserve.
func (e *Engine) Deposit(ctx context.Context, account, owner string, amount uint64) error {
	if amount == 0 {
		return apperrors.NewInvalidRequest("amount must be positive")
	}
	if err := e.bank.Deposit(account, owner, amount); err != nil {
		return err
	}
	e.persistBalances(ctx)
	return nil
}

// BankBalance exposes a read of one vault account.
func (e *Engine) BankBalance(account string) (uint64, error) {
	return e.bank.Balance(account)
}

// persistBalances mirrors vault state for restart recovery. Best effort: the
// bank stays authoritative while the process runs.
func (e *Engine) persistBalances(ctx context.Context) {
	if e.balances == nil {
		return
	}
	if err := e.balances.SaveBalances(ctx, e.bank.Snapshot()); err != nil {
		logger.LogError(ctx, err, "persisting balances")
	}
}

func (e *Engine) orderLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}
