package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts request lifecycle transitions by outcome.
type RequestMetrics struct {
	transitions *prometheus.CounterVec
}

// NewRequestMetrics registers the request transition metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_transitions_total",
		Help: "Request status transitions applied, labelled by source and target status.",
	}, []string{"from", "to"})
	reg.MustRegister(transitions)
	return &RequestMetrics{transitions: transitions}
}

// IncTransition records one applied transition.
func (m *RequestMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
