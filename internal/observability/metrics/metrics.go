package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the assistant pipeline.
type AssistantMetrics struct {
	intentsTotal  *prometheus.CounterVec
	externalTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "assistant",
			Name:      "intents_total",
			Help:      "Messages answered, by matched intent",
		}, []string{"intent"}),
		externalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "assistant",
			Name:      "external_total",
			Help:      "External model calls, by outcome",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postop",
			Subsystem: "assistant",
			Name:      "latency_seconds",
			Help:      "Time to answer a message, by path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.intentsTotal, m.externalTotal, m.latency)
	return m
}

func (m *AssistantMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

// ObserveExternal records one external call: "ok", "error", "empty" or "disabled".
func (m *AssistantMetrics) ObserveExternal(outcome string) {
	if m == nil {
		return
	}
	m.externalTotal.WithLabelValues(outcome).Inc()
}

func (m *AssistantMetrics) ObserveLatency(path string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(path).Observe(seconds)
}
