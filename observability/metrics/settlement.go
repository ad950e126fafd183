package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks the lifecycle of state-changing marketplace
// transactions and the reconciliation verdicts derived from their logs.
type SettlementMetrics struct {
	submitted        *prometheus.CounterVec
	confirmed        *prometheus.CounterVec
	failed           *prometheus.CounterVec
	reconcileMissing *prometheus.CounterVec
	confirmSeconds   *prometheus.HistogramVec
}

var (
	settlementOnce     sync.Once
	settlementRegistry *SettlementMetrics
)

// Settlement returns the process-wide settlement metrics, registering them on
// first use.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementRegistry = &SettlementMetrics{
			submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_tx_submitted_total",
				Help: "Count of broadcast settlement transactions by operation.",
			}, []string{"op"}),
			confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_tx_confirmed_total",
				Help: "Count of confirmed settlement transactions by operation.",
			}, []string{"op"}),
			failed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_tx_failed_total",
				Help: "Count of failed settlement attempts by operation and stage.",
			}, []string{"op", "stage"}),
			reconcileMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_reconcile_missing_total",
				Help: "Count of confirmed transactions whose log lacked the expected proof, by operation.",
			}, []string{"op"}),
			confirmSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "settlement_confirmation_seconds",
				Help:    "Time spent waiting for ledger confirmation by operation.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			settlementRegistry.submitted,
			settlementRegistry.confirmed,
			settlementRegistry.failed,
			settlementRegistry.reconcileMissing,
			settlementRegistry.confirmSeconds,
		)
	})
	return settlementRegistry
}

// Submitted records a broadcast for the operation.
func (m *SettlementMetrics) Submitted(op string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(op).Inc()
}

// Confirmed records a confirmation and the seconds spent waiting for it.
func (m *SettlementMetrics) Confirmed(op string, seconds float64) {
	if m == nil {
		return
	}
	m.confirmed.WithLabelValues(op).Inc()
	m.confirmSeconds.WithLabelValues(op).Observe(seconds)
}

// Failed records a failure at the given lifecycle stage.
func (m *SettlementMetrics) Failed(op, stage string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(op, stage).Inc()
}

// ReconcileMissing records a confirmed transaction whose log lacked the
// expected proof.
func (m *SettlementMetrics) ReconcileMissing(op string) {
	if m == nil {
		return
	}
	m.reconcileMissing.WithLabelValues(op).Inc()
	m.failed.WithLabelValues(op, "reconcile").Inc()
}
