// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Controller records how long controller methods take and how they end.
type Controller struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewController creates the collectors and registers them on reg.
func NewController(reg prometheus.Registerer) *Controller {
	m := &Controller{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coa",
			Subsystem: "controller",
			Name:      "call_duration_seconds",
			Help:      "Wall clock time of controller calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coa",
			Subsystem: "controller",
			Name:      "calls_total",
			Help:      "Number of controller calls.",
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(m.duration, m.calls)
	return m
}

func (m *Controller) Observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
	m.calls.WithLabelValues(method, outcome).Inc()
}
