package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

// StaticFeed serves a fixed price. Used for dev deployments without a live
// feed and in tests.
type StaticFeed struct {
	price Price
	err   error
}

func NewStaticFeed(p Price) *StaticFeed {
	return &StaticFeed{price: p}
}

// NewStaticFeedFromString parses a decimal string like "1.25".
func NewStaticFeedFromString(s string) (*StaticFeed, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrBadOracle, "parsing static price", err)
	}
	return &StaticFeed{price: Price{
		Mantissa:    d.CoefficientInt64(),
		Expo:        d.Exponent(),
		PublishTime: time.Now().Unix(),
	}}, nil
}

// Fail makes every subsequent read return the given error.
func (f *StaticFeed) Fail(err error) { f.err = err }

func (f *StaticFeed) Price(ctx context.Context) (Price, error) {
	if f.err != nil {
		return Price{}, f.err
	}
	p := f.price
	p.PublishTime = time.Now().Unix()
	return p, nil
}
