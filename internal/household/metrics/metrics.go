package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the household registry module.
type Metrics struct {
	HouseholdsRegistered prometheus.Counter
	StatusToggles        *prometheus.CounterVec
	ResidentsRestored    prometheus.Counter
}

// New creates a new Metrics instance with all household module metrics registered.
func New() *Metrics {
	return &Metrics{
		HouseholdsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardbook_households_registered_total",
			Help: "Total number of households registered",
		}),
		StatusToggles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wardbook_household_status_toggles_total",
			Help: "Total household status toggles by direction",
		}, []string{"direction"}),
		ResidentsRestored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardbook_residents_restored_total",
			Help: "Residents restored to permanent status by household reactivation",
		}),
	}
}

// IncrementHouseholdsRegistered records a successful household registration.
func (m *Metrics) IncrementHouseholdsRegistered() {
	m.HouseholdsRegistered.Inc()
}

// IncrementStatusToggle records a status toggle in the given direction.
func (m *Metrics) IncrementStatusToggle(direction string) {
	m.StatusToggles.WithLabelValues(direction).Inc()
}

// AddResidentsRestored records residents restored by a reactivation.
func (m *Metrics) AddResidentsRestored(n int) {
	m.ResidentsRestored.Add(float64(n))
}
