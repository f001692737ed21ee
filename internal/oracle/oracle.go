// Package oracle reads the reference-asset price feed consulted by the
// rebase signal generator.
package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Price is a fixed-point feed reading: Mantissa * 10^Expo.
type Price struct {
	Mantissa    int64
	Expo        int32
	PublishTime int64 // unix seconds
}

// Decimal converts the reading to an exact decimal value.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(p.Mantissa, p.Expo)
}

// PriceFeed returns the current price or an error when the feed is
// unreachable, unparsable, or stale.
type PriceFeed interface {
	Price(ctx context.Context) (Price, error)
}
