package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit delivery.
type Metrics struct {
	Produced     prometheus.Counter
	Failed       prometheus.Counter
	Fallback     prometheus.Counter
	BreakerState prometheus.Gauge
}

// NewMetrics registers the audit collectors with reg, or the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Produced: f.NewCounter(prometheus.CounterOpts{
			Name: "refeera_audit_produced_total",
			Help: "Audit events acknowledged by the broker",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "refeera_audit_produce_failures_total",
			Help: "Audit events the broker failed to acknowledge",
		}),
		Fallback: f.NewCounter(prometheus.CounterOpts{
			Name: "refeera_audit_fallback_total",
			Help: "Audit events written to the log because the circuit was open",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "refeera_audit_breaker_open",
			Help: "1 while the audit circuit breaker is open",
		}),
	}
}

func (m *Metrics) incProduced() {
	if m != nil {
		m.Produced.Inc()
	}
}

func (m *Metrics) incFailed() {
	if m != nil {
		m.Failed.Inc()
	}
}

func (m *Metrics) incFallback() {
	if m != nil {
		m.Fallback.Inc()
	}
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}
