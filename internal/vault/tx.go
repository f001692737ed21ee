package vault

import (
	"fmt"

	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

// Tx stages a sequence of transfers and applies them as one unit. The bank
// lock is held from Begin until Commit or Rollback, so no other mutation can
// observe a partially applied settlement.
type Tx struct {
	bank   *Bank
	staged map[string]uint64 // pending amounts for touched accounts
	done   bool
}

func (b *Bank) Begin() *Tx {
	b.mu.Lock()
	return &Tx{bank: b, staged: make(map[string]uint64)}
}

// Transfer stages one movement. Validation runs against the staged view, so a
// later transfer sees the effect of earlier ones in the same transaction.
func (t *Tx) Transfer(from, to string, auth Authority, amount uint64) error {
	if t.done {
		return apperrors.New(apperrors.ErrInternal, "transaction already finished", nil)
	}
	src, ok := t.bank.accounts[from]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("account %s not found", from))
	}
	dst, ok := t.bank.accounts[to]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("account %s not found", to))
	}
	if auth.owner == "" || auth.owner != src.owner {
		return apperrors.Newf(apperrors.ErrUnauthorized, "authority %q cannot move funds from %s", auth.owner, from)
	}

	srcBal := t.stagedBalance(from, src.amount)
	if srcBal < amount {
		return apperrors.Newf(apperrors.ErrInsufficientFunds, "account %s holds %d, need %d", from, srcBal, amount)
	}
	dstBal := t.stagedBalance(to, dst.amount)
	if dstBal+amount < dstBal {
		return apperrors.Newf(apperrors.ErrInvalidRequest, "transfer overflows account %s", to)
	}

	t.staged[from] = srcBal - amount
	t.staged[to] = dstBal + amount
	return nil
}

// Commit applies every staged balance and releases the bank.
func (t *Tx) Commit() error {
	if t.done {
		return apperrors.New(apperrors.ErrInternal, "transaction already finished", nil)
	}
	for name, amount := range t.staged {
		t.bank.accounts[name].amount = amount
	}
	t.done = true
	t.bank.mu.Unlock()
	return nil
}

// Rollback discards staged transfers. Safe to defer after Commit.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.bank.mu.Unlock()
}

func (t *Tx) stagedBalance(name string, current uint64) uint64 {
	if v, ok := t.staged[name]; ok {
		return v
	}
	return current
}
