package model

import "time"

// Order is one staged sell order in the unwind ledger. The deposited asset
// sits in the holding vault and leaves it in capped tranches.
type Order struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Seller       string `gorm:"index" json:"seller"`
	Total        uint64 `json:"total"`
	Remaining    uint64 `json:"remaining"`
	Tranche      uint64 `json:"tranche"`
	StartTime    int64  `json:"start_time"`
	LastExecuted int64  `json:"last_executed"` // unix seconds; 0 = never executed
	Active       bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ready reports whether the interval gate has elapsed for this order.
// The first execution is never interval-gated; the boundary is inclusive.
func (o *Order) Ready(now, interval int64) bool {
	if !o.Active || o.Remaining == 0 {
		return false
	}
	if o.LastExecuted == 0 {
		return true
	}
	return now >= o.LastExecuted+interval
}

// EffectiveTranche is the amount the next execution will release.
func (o *Order) EffectiveTranche() uint64 {
	if o.Tranche > o.Remaining {
		return o.Remaining
	}
	return o.Tranche
}

// PolicyConfig is the singleton deployment policy record, created once by the
// owner and read at execution time by every tranche execution.
type PolicyConfig struct {
	ID              uint   `gorm:"primaryKey" json:"-"` // always 1
	Owner           string `json:"owner"`
	TrancheInterval int64  `json:"tranche_interval"` // seconds between executions per order
	// Reserved policy cap on transaction size vs. total supply, in basis
	// points. Stored but not enforced by any operation.
	MaxTxPercentBP uint64 `json:"max_tx_percent_bp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	DefaultTrancheInterval = int64(86_400)
	DefaultMaxTxPercentBP  = uint64(100)
)

// Balance mirrors one vault account for persistence.
type Balance struct {
	Name   string `gorm:"primaryKey" json:"name"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`

	UpdatedAt time.Time `json:"updated_at"`
}
