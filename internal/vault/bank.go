// Package vault is the in-process value-transfer service: named balances,
// owner-bound transfer authority, and an all-or-nothing multi-transfer
// transaction used by tranche settlement.
package vault

import (
	"fmt"
	"sync"

	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

// Authority permits transfers out of accounts owned by the identity it was
// issued for. The zero value authorizes nothing; the field is unexported so
// callers outside this package cannot forge one.
type Authority struct {
	owner string
}

func (a Authority) Owner() string { return a.owner }

type account struct {
	owner  string
	amount uint64
}

// Bank holds all balances. Every mutation happens under one lock, so a
// transfer either moves the full amount or leaves both accounts untouched.
type Bank struct {
	mu       sync.Mutex
	accounts map[string]*account
}

func NewBank() *Bank {
	return &Bank{accounts: make(map[string]*account)}
}

// Issue returns the transfer authority for an identity. Handed out during
// wiring only; request handlers never see one.
func (b *Bank) Issue(owner string) Authority {
	return Authority{owner: owner}
}

// Open creates an account owned by the given identity. Opening an existing
// account is a no-op when the owner matches and an error otherwise.
func (b *Bank) Open(name, owner string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct, ok := b.accounts[name]; ok {
		if acct.owner != owner {
			return apperrors.Newf(apperrors.ErrConflict, "account %s already owned by %s", name, acct.owner)
		}
		return nil
	}
	b.accounts[name] = &account{owner: owner}
	return nil
}

// Deposit credits an account, creating it owned by owner if missing.
func (b *Bank) Deposit(name, owner string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[name]
	if !ok {
		acct = &account{owner: owner}
		b.accounts[name] = acct
	} else if acct.owner != owner {
		return apperrors.Newf(apperrors.ErrConflict, "account %s already owned by %s", name, acct.owner)
	}
	next := acct.amount + amount
	if next < acct.amount {
		return apperrors.Newf(apperrors.ErrInvalidRequest, "deposit overflows account %s", name)
	}
	acct.amount = next
	return nil
}

// Balance returns the current amount held by an account.
func (b *Bank) Balance(name string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[name]
	if !ok {
		return 0, apperrors.NewNotFound(fmt.Sprintf("account %s not found", name))
	}
	return acct.amount, nil
}

// Owner returns the owning identity of an account.
func (b *Bank) Owner(name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[name]
	if !ok {
		return "", apperrors.NewNotFound(fmt.Sprintf("account %s not found", name))
	}
	return acct.owner, nil
}

// Transfer atomically moves amount from one account to another. The authority
// must match the source account's owner.
func (b *Bank) Transfer(from, to string, auth Authority, amount uint64) error {
	tx := b.Begin()
	defer tx.Rollback()
	if err := tx.Transfer(from, to, auth, amount); err != nil {
		return err
	}
	return tx.Commit()
}

// Snapshot returns a copy of all balances, for persistence write-through.
func (b *Bank) Snapshot() map[string]BalanceEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]BalanceEntry, len(b.accounts))
	for name, acct := range b.accounts {
		out[name] = BalanceEntry{Owner: acct.owner, Amount: acct.amount}
	}
	return out
}

// Restore loads balances wholesale, replacing current state. Used at startup.
func (b *Bank) Restore(entries map[string]BalanceEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = make(map[string]*account, len(entries))
	for name, e := range entries {
		b.accounts[name] = &account{owner: e.Owner, amount: e.Amount}
	}
}

type BalanceEntry struct {
	Owner  string
	Amount uint64
}
