package engine

import (
	"context"
	"strconv"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/oracle"
	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
	"github.com/unwindlabs/tranchegate/internal/pkg/metrics"
	"github.com/unwindlabs/tranchegate/internal/repository"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

// holderDampeningThreshold splits the shrink schedule: populations above it
// get the gentle rate, at or below it the harsh one.
const (
	holderDampeningThreshold = uint64(1_000)
	shrinkBPGentle           = uint64(50)  // 0.5%
	shrinkBPHarsh            = uint64(500) // 5%
)

// SignalSink receives emitted rebase signals. Delivery is fire-and-forget; a
// failing sink never fails the trigger.
type SignalSink interface {
	Publish(ctx context.Context, sig model.RebaseSignal) error
}

// Rebaser computes the periodic supply-shrink signal from the price oracle
// and holder count. Stateless: no ledger or balance mutation, no rate limit.
type Rebaser struct {
	feed    oracle.PriceFeed
	holders repository.HolderCounter
	sinks   []SignalSink
	clock   vault.Clock
}

func NewRebaser(feed oracle.PriceFeed, holders repository.HolderCounter, clock vault.Clock, sinks ...SignalSink) *Rebaser {
	if clock == nil {
		clock = vault.SystemClock()
	}
	return &Rebaser{feed: feed, holders: holders, sinks: sinks, clock: clock}
}

// Trigger reads the oracle and holder count, derives the shrink ratio, and
// broadcasts the signal. Idempotent; may be called at any frequency.
func (r *Rebaser) Trigger(ctx context.Context) (model.RebaseSignal, error) {
	price, err := r.feed.Price(ctx)
	if err != nil {
		metrics.OracleErrors.Inc()
		if apperrors.Is(err, apperrors.ErrBadOracle) {
			return model.RebaseSignal{}, err
		}
		return model.RebaseSignal{}, apperrors.New(apperrors.ErrBadOracle, "price feed failed", err)
	}

	holders, err := r.holders.HolderCount(ctx)
	if err != nil {
		return model.RebaseSignal{}, apperrors.New(apperrors.ErrInternal, "holder count unavailable", err)
	}

	shrink := shrinkBPHarsh
	if holders > holderDampeningThreshold {
		shrink = shrinkBPGentle
	}

	sig := model.RebaseSignal{
		ShrinkBP: shrink,
		Price:    price.Decimal().String(),
		Holders:  holders,
		At:       r.clock.Now(),
	}

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, sig); err != nil {
			logger.Warn("rebase signal sink failed", "error", err)
		}
	}

	metrics.RebaseSignals.WithLabelValues(strconv.FormatUint(shrink, 10)).Inc()
	logger.Info("rebase signal emitted", "shrink_bp", shrink, "price", sig.Price, "holders", holders)
	return sig, nil
}
