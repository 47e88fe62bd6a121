package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fee ledger module.
type Metrics struct {
	PaymentsRecorded  *prometheus.CounterVec
	PaymentsRejected  *prometheus.CounterVec
	AmountCollected   prometheus.Counter
	RecordDuration    prometheus.Histogram
	BalanceDuration   prometheus.Histogram
	FeeTypesActivated prometheus.Counter
}

// New creates a new Metrics instance with all ledger module metrics registered.
func New() *Metrics {
	return &Metrics{
		PaymentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_payments_recorded_total",
			Help: "Total payments recorded, by fee kind",
		}, []string{"kind"}),
		PaymentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_payments_rejected_total",
			Help: "Total payments rejected by ledger guards, by reason",
		}, []string{"reason"}),
		AmountCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardbook_amount_collected_total",
			Help: "Total amount collected across all fee types",
		}),
		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardbook_record_payment_duration_seconds",
			Help:    "Duration of RecordPayment operations (ledger critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BalanceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardbook_get_balance_duration_seconds",
			Help:    "Duration of GetBalance operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		FeeTypesActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardbook_fee_types_activated_total",
			Help: "Total fee type activations",
		}),
	}
}

// IncrementPaymentsRecorded records a successful payment of the given kind.
func (m *Metrics) IncrementPaymentsRecorded(kind string) {
	m.PaymentsRecorded.WithLabelValues(kind).Inc()
}

// IncrementPaymentsRejected records a rejected payment by reason.
func (m *Metrics) IncrementPaymentsRejected(reason string) {
	m.PaymentsRejected.WithLabelValues(reason).Inc()
}

// AddAmountCollected adds to the running collected total.
func (m *Metrics) AddAmountCollected(amount int64) {
	m.AmountCollected.Add(float64(amount))
}

// ObserveRecordPayment records the duration of a RecordPayment operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecordPayment(start time.Time) {
	m.RecordDuration.Observe(time.Since(start).Seconds())
}

// ObserveGetBalance records the duration of a GetBalance operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGetBalance(start time.Time) {
	m.BalanceDuration.Observe(time.Since(start).Seconds())
}

// IncrementFeeTypesActivated records a fee type activation.
func (m *Metrics) IncrementFeeTypesActivated() {
	m.FeeTypesActivated.Inc()
}
