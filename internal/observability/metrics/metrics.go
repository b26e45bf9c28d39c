// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the service. Instruments
// are registered against an explicit registry so tests can construct as
// many instances as they like without double-registration.
type Metrics struct {
	// Gating metrics
	GatingActiveCalls    prometheus.Gauge
	CaptureDisabledCalls prometheus.Gauge

	// Conversation state metrics
	ConversationStateCalls *prometheus.GaugeVec

	// Barge-in metrics
	BargeInEvents prometheus.Counter

	// Event publish metrics
	EventPublishTotal   *prometheus.CounterVec
	EventPublishErrors  *prometheus.CounterVec
	EventPublishLatency *prometheus.HistogramVec
}

// New creates all Prometheus instruments and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Gating metrics
		GatingActiveCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ai_agent_tts_gating_active_calls",
			Help: "Number of active calls with TTS gating enabled",
		}),
		CaptureDisabledCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ai_agent_audio_capture_disabled_calls",
			Help: "Number of active calls with upstream audio capture disabled",
		}),

		// Conversation state metrics
		ConversationStateCalls: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ai_agent_conversation_state_calls",
			Help: "Number of active calls in each conversation state",
		}, []string{"state"}),

		// Barge-in metrics
		BargeInEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "ai_agent_barge_in_events_total",
			Help: "Count of barge-in attempts detected while TTS playback is active",
		}),

		// Event publish metrics
		EventPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_agent_event_publish_total",
			Help: "Total number of conversation events published",
		}, []string{"topic", "event_type"}),
		EventPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_agent_event_publish_errors_total",
			Help: "Total number of conversation event publish errors",
		}, []string{"topic", "event_type"}),
		EventPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_agent_event_publish_latency_seconds",
			Help:    "Conversation event publish latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// SetGatingActive sets the number of calls with an active gating episode.
func (m *Metrics) SetGatingActive(n int) {
	m.GatingActiveCalls.Set(float64(n))
}

// SetCaptureDisabled sets the number of calls with capture disabled.
func (m *Metrics) SetCaptureDisabled(n int) {
	m.CaptureDisabledCalls.Set(float64(n))
}

// SetConversationState sets the number of calls in the given state.
func (m *Metrics) SetConversationState(state string, n int) {
	m.ConversationStateCalls.WithLabelValues(state).Set(float64(n))
}

// RecordBargeIn records a detected barge-in attempt.
func (m *Metrics) RecordBargeIn() {
	m.BargeInEvents.Inc()
}

// RecordEventPublish records a conversation event publish attempt.
func (m *Metrics) RecordEventPublish(topic, eventType string, err error, latencySeconds float64) {
	m.EventPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.EventPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.EventPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
