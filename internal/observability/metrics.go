package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	MessagesHandled *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	StoreFallbacks  *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	GatewayErrors   *prometheus.CounterVec
	SessionsEvicted prometheus.Counter
	InboundRejected *prometheus.CounterVec
	HandlingLatency prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound messages by session state at arrival and message kind.",
		}, []string{"state", "kind"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Session state transitions by source and target state.",
		}, []string{"from", "to"}),
		StoreFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_store_fallbacks_total",
			Help:      "Times the session store degraded to in-memory sessions.",
		}, []string{"reason"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_store_errors_total",
			Help:      "Session store errors by operation.",
		}, []string{"operation"}),
		GatewayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "External gateway failures by gateway and operation.",
		}, []string{"gateway", "operation"}),
		SessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Expired sessions removed by the cleanup sweep.",
		}),
		InboundRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_rejected_total",
			Help:      "Inbound messages rejected before processing, by reason.",
		}, []string{"reason"}),
		HandlingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_handling_ms",
			Help:      "Time spent processing one inbound message in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}),
	}
}

func (m *Metrics) ObserveMessage(state, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.MessagesHandled.WithLabelValues(state, kind).Inc()
	m.HandlingLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) StoreFallback(reason string) {
	if m == nil {
		return
	}
	m.StoreFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) StoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) GatewayError(gateway, operation string) {
	if m == nil {
		return
	}
	m.GatewayErrors.WithLabelValues(gateway, operation).Inc()
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvicted.Add(float64(n))
}

func (m *Metrics) InboundRejectedFor(reason string) {
	if m == nil {
		return
	}
	m.InboundRejected.WithLabelValues(reason).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
