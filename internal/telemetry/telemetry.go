package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the counters the chat pipeline reports. A nil *Metrics is
// valid everywhere and records nothing, which keeps tests quiet.
type Metrics struct {
	chatRequests    *prometheus.CounterVec
	oracleFallbacks *prometheus.CounterVec
	oracleFailures  prometheus.Counter
	oracleLatency   prometheus.Histogram
	historyFailures prometheus.Counter
}

// New registers the pipeline metrics on the given registerer (the default
// prometheus registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_chat_requests_total",
			Help: "Chat requests processed, by classified intent.",
		}, []string{"intent"}),
		oracleFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfarer_oracle_fallbacks_total",
			Help: "Oracle replies replaced by the static fallback payload, by reason.",
		}, []string{"reason"}),
		oracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_oracle_failures_total",
			Help: "Transport-level oracle failures surfaced to callers.",
		}),
		oracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfarer_oracle_latency_seconds",
			Help:    "Latency of external model calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		historyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfarer_history_write_failures_total",
			Help: "Conversation turns that could not be persisted.",
		}),
	}
	reg.MustRegister(m.chatRequests, m.oracleFallbacks, m.oracleFailures, m.oracleLatency, m.historyFailures)
	return m
}

func (m *Metrics) ChatRequest(intent string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(intent).Inc()
}

func (m *Metrics) OracleFallback(reason string) {
	if m == nil {
		return
	}
	m.oracleFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) OracleFailure() {
	if m == nil {
		return
	}
	m.oracleFailures.Inc()
}

func (m *Metrics) OracleLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.oracleLatency.Observe(d.Seconds())
}

func (m *Metrics) HistoryWriteFailure() {
	if m == nil {
		return
	}
	m.historyFailures.Inc()
}
