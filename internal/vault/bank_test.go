package vault

import (
	"testing"

	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

func TestTransferMovesFullAmount(t *testing.T) {
	b := NewBank()
	if err := b.Deposit("a", "alice", 100); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if err := b.Open("b", "bob"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if err := b.Transfer("a", "b", b.Issue("alice"), 60); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if bal, _ := b.Balance("a"); bal != 40 {
		t.Fatalf("source balance = %d, want 40", bal)
	}
	if bal, _ := b.Balance("b"); bal != 60 {
		t.Fatalf("destination balance = %d, want 60", bal)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("a", "alice", 10)
	_ = b.Open("b", "bob")

	err := b.Transfer("a", "b", b.Issue("alice"), 11)
	if !apperrors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if bal, _ := b.Balance("a"); bal != 10 {
		t.Fatalf("failed transfer must not move funds, balance = %d", bal)
	}
}

func TestTransferRequiresOwnerAuthority(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("a", "alice", 100)
	_ = b.Open("b", "bob")

	if err := b.Transfer("a", "b", b.Issue("mallory"), 10); !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	var zero Authority
	if err := b.Transfer("a", "b", zero, 10); !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("zero authority must be rejected, got %v", err)
	}
}

func TestTxRollbackOnSecondTransferFailure(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("holding", "mech", 100)
	_ = b.Deposit("reserve", "mech", 5)
	_ = b.Open("keeper", "k")
	_ = b.Open("seller", "s")
	auth := b.Issue("mech")

	tx := b.Begin()
	if err := tx.Transfer("holding", "keeper", auth, 10); err != nil {
		tx.Rollback()
		t.Fatalf("first transfer failed: %v", err)
	}
	if err := tx.Transfer("reserve", "seller", auth, 50); err == nil {
		tx.Rollback()
		t.Fatal("expected second transfer to fail")
	}
	tx.Rollback()

	// Nothing from the staged first transfer may be visible.
	if bal, _ := b.Balance("holding"); bal != 100 {
		t.Fatalf("holding = %d, want 100", bal)
	}
	if bal, _ := b.Balance("keeper"); bal != 0 {
		t.Fatalf("keeper = %d, want 0", bal)
	}
}

func TestTxSeesOwnStagedEffects(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("a", "o", 10)
	_ = b.Open("b", "o")
	_ = b.Open("c", "o")
	auth := b.Issue("o")

	tx := b.Begin()
	if err := tx.Transfer("a", "b", auth, 10); err != nil {
		tx.Rollback()
		t.Fatalf("transfer failed: %v", err)
	}
	// Chained transfer spends funds staged by the previous one.
	if err := tx.Transfer("b", "c", auth, 10); err != nil {
		tx.Rollback()
		t.Fatalf("chained transfer failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if bal, _ := b.Balance("c"); bal != 10 {
		t.Fatalf("c = %d, want 10", bal)
	}
}

func TestDepositOverflowRejected(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("a", "o", ^uint64(0))
	if err := b.Deposit("a", "o", 1); !apperrors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("expected overflow rejection, got %v", err)
	}
}

func TestOpenOwnershipConflict(t *testing.T) {
	b := NewBank()
	if err := b.Open("a", "alice"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := b.Open("a", "alice"); err != nil {
		t.Fatalf("re-open by same owner must be a no-op: %v", err)
	}
	if err := b.Open("a", "bob"); !apperrors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ownership conflict, got %v", err)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	b := NewBank()
	_ = b.Deposit("a", "alice", 7)
	_ = b.Deposit("b", "bob", 3)

	other := NewBank()
	other.Restore(b.Snapshot())

	if bal, _ := other.Balance("a"); bal != 7 {
		t.Fatalf("restored a = %d, want 7", bal)
	}
	if owner, _ := other.Owner("b"); owner != "bob" {
		t.Fatalf("restored owner = %q, want bob", owner)
	}
}
