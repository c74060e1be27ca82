package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	// Operation outcomes by operation and result code
	OperationOutcome *prometheus.CounterVec

	// Operation latency by operation
	OperationLatency *prometheus.HistogramVec

	// Lots minted, by reason: issuance, transfer, retirement
	LotsMinted *prometheus.CounterVec

	// Credits retired, cumulative
	CreditsRetired prometheus.Counter
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carbonledger_operations_total",
			Help: "Total ledger operations by operation and outcome code",
		}, []string{"operation", "outcome"}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carbonledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		LotsMinted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carbonledger_lots_minted_total",
			Help: "Total credit lots minted by reason",
		}, []string{"reason"}),

		CreditsRetired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carbonledger_credits_retired_total",
			Help: "Cumulative credits retired through this process",
		}),
	}
}

// ObserveOperation records one operation's outcome and latency.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m != nil {
		m.OperationOutcome.WithLabelValues(operation, outcome).Inc()
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementLotsMinted records minted lots by reason.
func (m *Metrics) IncrementLotsMinted(reason string, n int) {
	if m != nil {
		m.LotsMinted.WithLabelValues(reason).Add(float64(n))
	}
}

// AddCreditsRetired records a successful retirement amount.
func (m *Metrics) AddCreditsRetired(amount int64) {
	if m != nil {
		m.CreditsRetired.Add(float64(amount))
	}
}
