package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics counts auth operations by endpoint and outcome.
type metrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authstarter",
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Auth operations by endpoint and outcome.",
		}, []string{"op", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations)
	}
	return m
}

func (m *metrics) observe(op, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}
