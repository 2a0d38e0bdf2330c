package sandbox

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts sandbox calls and gas usage, ambient observability
// wiring its go.mod dependency on
// github.com/prometheus/client_golang (gas-metering policy is out of
// scope, but call-level observability is carried regardless).
type Metrics struct {
	Calls    *prometheus.CounterVec
	GasUsed  *prometheus.CounterVec
	CallTime *prometheus.HistogramVec
}

// NewMetrics registers the sandbox's counters against reg. Callers that
// don't want Prometheus wiring (e.g. unit tests) may pass a fresh
// *prometheus.Registry rather than the global default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grug",
			Subsystem: "sandbox",
			Name:      "calls_total",
			Help:      "Number of sandbox entry point invocations, by entry point and outcome.",
		}, []string{"entry_point", "outcome"}),
		GasUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grug",
			Subsystem: "sandbox",
			Name:      "gas_used_total",
			Help:      "Gas consumed by sandbox calls, by entry point.",
		}, []string{"entry_point"}),
		CallTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grug",
			Subsystem: "sandbox",
			Name:      "call_duration_seconds",
			Help:      "Wall-clock duration of sandbox calls, by entry point.",
		}, []string{"entry_point"}),
	}
	reg.MustRegister(m.Calls, m.GasUsed, m.CallTime)
	return m
}

func (m *Metrics) observe(entryPoint string, gasUsed uint64, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Calls.WithLabelValues(entryPoint, outcome).Inc()
	m.GasUsed.WithLabelValues(entryPoint).Add(float64(gasUsed))
}
