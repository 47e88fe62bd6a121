package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lifecycle module.
type Metrics struct {
	RequestsCreated  *prometheus.CounterVec
	RequestsResolved *prometheus.CounterVec
	ResolverFailures *prometheus.CounterVec
	ApproveDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all lifecycle module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_change_requests_created_total",
			Help: "Total change requests created, by change type",
		}, []string{"type"}),
		RequestsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_change_requests_resolved_total",
			Help: "Total change requests resolved, by change type and outcome",
		}, []string{"type", "outcome"}),
		ResolverFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_side_effect_failures_total",
			Help: "Total approvals rolled back by a side-effect failure, by change type",
		}, []string{"type"}),
		ApproveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wardbook_approve_duration_seconds",
			Help:    "Duration of Approve operations including side effects",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRequestsCreated records a created change request.
func (m *Metrics) IncrementRequestsCreated(changeType string) {
	m.RequestsCreated.WithLabelValues(changeType).Inc()
}

// IncrementRequestsResolved records a resolved change request.
func (m *Metrics) IncrementRequestsResolved(changeType, outcome string) {
	m.RequestsResolved.WithLabelValues(changeType, outcome).Inc()
}

// IncrementResolverFailures records an approval rolled back by its side
// effects.
func (m *Metrics) IncrementResolverFailures(changeType string) {
	m.ResolverFailures.WithLabelValues(changeType).Inc()
}

// ObserveApprove records the duration of an Approve operation. Call with
// time.Now() at the start of the operation.
func (m *Metrics) ObserveApprove(start time.Time) {
	m.ApproveDuration.Observe(time.Since(start).Seconds())
}
