package interactions

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts mutation outcomes. A zero Metrics is valid and records
// nothing until Register is called.
type Metrics struct {
	startedCounter    *prometheus.CounterVec
	committedCounter  *prometheus.CounterVec
	rolledBackCounter *prometheus.CounterVec
	inFlightRejected  *prometheus.CounterVec
	pendingGauge      *prometheus.GaugeVec

	registerOnce sync.Once
}

// Register registers the metrics with registry. A nil registry is a no-op and
// calls after the first are ignored.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.startedCounter = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_interactions_mutations_started_total",
			Help: "Total number of optimistic mutations applied locally",
		}, []string{"kind"})

		m.committedCounter = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_interactions_mutations_committed_total",
			Help: "Total number of optimistic mutations confirmed by the gateway",
		}, []string{"kind"})

		m.rolledBackCounter = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_interactions_mutations_rolled_back_total",
			Help: "Total number of optimistic mutations reverted after a gateway failure",
		}, []string{"kind", "class"})

		m.inFlightRejected = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_interactions_mutations_in_flight_rejected_total",
			Help: "Total number of mutations rejected because the same one was pending",
		}, []string{"kind"})

		m.pendingGauge = factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lms_interactions_mutations_pending",
			Help: "Number of mutations waiting for the gateway",
		}, []string{"kind"})
	})
}

func (m *Metrics) started(kind Kind) {
	if m == nil || m.startedCounter == nil {
		return
	}

	m.startedCounter.WithLabelValues(string(kind)).Inc()
	m.pendingGauge.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) committed(kind Kind) {
	if m == nil || m.committedCounter == nil {
		return
	}

	m.committedCounter.WithLabelValues(string(kind)).Inc()
	m.pendingGauge.WithLabelValues(string(kind)).Dec()
}

func (m *Metrics) rolledBack(kind Kind, class string) {
	if m == nil || m.rolledBackCounter == nil {
		return
	}

	m.rolledBackCounter.WithLabelValues(string(kind), class).Inc()
	m.pendingGauge.WithLabelValues(string(kind)).Dec()
}

func (m *Metrics) rejectedInFlight(kind Kind) {
	if m == nil || m.inFlightRejected == nil {
		return
	}

	m.inFlightRejected.WithLabelValues(string(kind)).Inc()
}
