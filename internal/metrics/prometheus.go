package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Pipeline stages timed per turn
const (
	StageTranscription = "transcription"
	StageReasoning     = "reasoning"
	StageSynthesis     = "synthesis"
)

// Metrics contains all Prometheus metrics for the voice server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	AudioBytes        prometheus.Counter

	Turns         *prometheus.CounterVec
	TurnDuration  prometheus.Histogram
	StageDuration *prometheus.HistogramVec
	MessageErrors prometheus.Counter
}

// NewMetrics creates and registers all metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxcal_active_connections",
			Help: "Current number of open voice websocket connections",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcal_connections_total",
			Help: "Total number of voice websocket connections accepted",
		}),
		AudioBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcal_audio_received_bytes_total",
			Help: "Total bytes of PCM audio received from clients",
		}),
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxcal_turns_total",
			Help: "Total number of finalized turns by outcome",
		}, []string{"outcome"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxcal_turn_duration_seconds",
			Help:    "Time from the start of a turn until its reply was sent",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxcal_stage_duration_seconds",
			Help:    "Time spent waiting on each external call of a turn",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stage"}),
		MessageErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcal_message_errors_total",
			Help: "Total number of client messages whose handling failed",
		}),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *Metrics) AddAudioBytes(n int) {
	if m == nil {
		return
	}
	m.AudioBytes.Add(float64(n))
}

// ObserveTurn records a finalized turn
func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.TurnDuration.Observe(d.Seconds())
	}
}

// ObserveStage records the duration of one external call
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) MessageFailed() {
	if m == nil {
		return
	}
	m.MessageErrors.Inc()
}
