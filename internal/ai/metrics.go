package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeInvalid     = "invalid_output"
	outcomeUnavailable = "unavailable"
)

// Metrics counts flow runs and records generator latency
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the flow collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewcentral",
			Subsystem: "ai",
			Name:      "flow_runs_total",
			Help:      "AI flow runs by flow and outcome.",
		}, []string{"flow", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reviewcentral",
			Subsystem: "ai",
			Name:      "flow_duration_seconds",
			Help:      "Time spent waiting for the model per flow.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"flow"}),
	}
	reg.MustRegister(m.runs, m.duration)
	return m
}

func (m *Metrics) observe(flow, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(flow, outcome).Inc()
	if outcome != outcomeUnavailable {
		m.duration.WithLabelValues(flow).Observe(elapsed.Seconds())
	}
}
