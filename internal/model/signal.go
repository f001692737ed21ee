package model

// RebaseSignal is the fire-and-forget supply-shrink notification. Price is
// the oracle reading serialized as an exact decimal string.
type RebaseSignal struct {
	ShrinkBP uint64 `json:"shrink_bp"`
	Price    string `json:"price"`
	Holders  uint64 `json:"holders"`
	At       int64  `json:"at"` // unix seconds
}
