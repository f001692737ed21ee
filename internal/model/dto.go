package model

// SubmitOrderRequest creates a new staged sell order. The deposit is taken
// from the seller's asset balance in the same atomic unit as the record write.
type SubmitOrderRequest struct {
	Seller        string `json:"seller" binding:"required"`
	TotalAmount   uint64 `json:"total_amount"`
	TrancheAmount uint64 `json:"tranche_amount"`
}

// ExecuteTrancheRequest is sent by a keeper to trigger one release.
// ExpectedAnchorOut is the counter-asset amount the keeper proposes to pay
// the seller out of the settlement reserve.
type ExecuteTrancheRequest struct {
	Keeper            string `json:"keeper" binding:"required"`
	ExpectedAnchorOut uint64 `json:"expected_anchor_out"`
}

// ExecuteTrancheResponse reports the settled amounts of one execution.
type ExecuteTrancheResponse struct {
	OrderID      string `json:"order_id"`
	Released     uint64 `json:"released"`
	Reward       uint64 `json:"reward"`
	AnchorOut    uint64 `json:"anchor_out"`
	Remaining    uint64 `json:"remaining"`
	Active       bool   `json:"active"`
	LastExecuted int64  `json:"last_executed"`
}

// DepositRequest credits an external balance (owner-gated faucet for
// bootstrapping reserves and seller balances).
type DepositRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Amount uint64 `json:"amount"`
}

// InitConfigRequest creates the singleton policy record.
type InitConfigRequest struct {
	Owner           string `json:"owner" binding:"required"`
	TrancheInterval int64  `json:"tranche_interval"`
	MaxTxPercentBP  uint64 `json:"max_tx_percent_bp"`
}
