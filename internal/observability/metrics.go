package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Turns                *prometheus.CounterVec
	BackendFailures      *prometheus.CounterVec
	Interrupts           prometheus.Counter
	SessionEvents        *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	ConversationMessages prometheus.Gauge
	TurnLatency          *prometheus.HistogramVec

	stages *StageWindow
}

// NewMetrics registers instruments on reg, or on the default registry when
// reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by classification and backend.",
		}, []string{"classification", "backend"}),
		BackendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Collaborator failures by backend and kind.",
		}, []string{"backend", "kind"}),
		Interrupts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupts_total",
			Help:      "Playbacks cut short by the stop signal.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open sessions.",
		}),
		ConversationMessages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_messages",
			Help:      "Messages held by the most recently updated conversation. History is never trimmed.",
		}),
		TurnLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Time from receiving a query to emitting its reply, in milliseconds.",
			Buckets:   []float64{5, 50, 200, 500, 1000, 2000, 4000, 8000},
		}, []string{"classification"}),
		stages: NewStageWindow(256),
	}
}

func (m *Metrics) ObserveTurn(classification, backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(classification, backend).Inc()
	m.TurnLatency.WithLabelValues(classification).Observe(float64(d.Milliseconds()))
	m.stages.Observe("turn_total", float64(d.Milliseconds()))
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Microseconds())/1000)
}

func (m *Metrics) ObserveFailure(backend, kind string) {
	if m == nil {
		return
	}
	m.BackendFailures.WithLabelValues(backend, kind).Inc()
	m.stages.ObserveIndicator(backend + "_" + kind)
}

func (m *Metrics) ObserveInterrupt() {
	if m == nil {
		return
	}
	m.Interrupts.Inc()
}

func (m *Metrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) SetConversationMessages(n int) {
	if m == nil {
		return
	}
	m.ConversationMessages.Set(float64(n))
}

// Stages returns rolling per-stage latency statistics.
func (m *Metrics) Stages() StageSnapshot {
	if m == nil {
		return StageSnapshot{GeneratedAt: time.Now().UTC()}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
