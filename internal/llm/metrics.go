package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-dispatch telemetry. The router is the single point
// that observes these: every call site funnels through it.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the dispatch metrics and registers them on reg.
// A nil registerer leaves the collectors unregistered (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llmbridge",
			Name:      "dispatch_total",
			Help:      "Dispatched requests by provider, operation, and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llmbridge",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration by provider and operation.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"provider", "operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.dispatches, m.duration)
	}
	return m
}

// Observe records one dispatch outcome.
func (m *Metrics) Observe(provider, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(ErrorKind(err))
	}
	m.dispatches.WithLabelValues(provider, operation, outcome).Inc()
	m.duration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}
