package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tranchegate_orders_submitted_total",
		Help: "The total number of sell orders accepted",
	})

	TranchesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tranchegate_tranches_executed_total",
		Help: "The total number of tranche executions settled",
	})

	TrancheRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tranchegate_tranche_rejects_total",
		Help: "Tranche executions rejected, by precondition",
	}, []string{"reason"})

	KeeperRewardsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tranchegate_keeper_rewards_paid_total",
		Help: "Cumulative keeper reward amount paid from the holding vault",
	})

	RebaseSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tranchegate_rebase_signals_total",
		Help: "Rebase signals emitted, by shrink basis points",
	}, []string{"shrink_bp"})

	OracleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tranchegate_oracle_errors_total",
		Help: "Price feed reads that failed or were stale",
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tranchegate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
