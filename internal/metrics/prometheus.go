package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics of the STT console.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Transport metrics
	FramesSent       prometheus.Counter
	BytesSent        prometheus.Counter
	FramesDropped    prometheus.Counter
	MetadataSent     prometheus.Counter
	MessagesReceived *prometheus.CounterVec
	MalformedPayload prometheus.Counter
	Connected        prometheus.Gauge

	// Capture metrics
	CaptureSessions prometheus.Counter
	InputRMS        prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_frames_sent_total",
			Help: "Total number of audio frames handed to the transport",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_bytes_sent_total",
			Help: "Total number of audio bytes handed to the transport",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_frames_dropped_total",
			Help: "Total number of audio frames dropped because the connection was not ready",
		}),
		MetadataSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_metadata_sent_total",
			Help: "Total number of metadata messages sent",
		}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stt_messages_received_total",
			Help: "Total number of server messages received by type",
		}, []string{"type"}),
		MalformedPayload: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_malformed_messages_total",
			Help: "Total number of server payloads that were not valid JSON",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stt_backend_connected",
			Help: "1 while the backend connection is open",
		}),
		CaptureSessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_capture_sessions_total",
			Help: "Total number of capture sessions started",
		}),
		InputRMS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stt_input_rms",
			Help: "RMS level of the most recent capture buffer",
		}),
	}
}

// Handler exposes the registry over HTTP
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordFrameSent records an accepted audio frame
func (m *Metrics) RecordFrameSent(size int) {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
	m.BytesSent.Add(float64(size))
}

// RecordFrameDropped records a frame discarded by the transport
func (m *Metrics) RecordFrameDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

// RecordMetadataSent records an accepted metadata message
func (m *Metrics) RecordMetadataSent() {
	if m == nil {
		return
	}
	m.MetadataSent.Inc()
}

// RecordMessage records a received server message
func (m *Metrics) RecordMessage(msgType string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

// RecordMalformed records an unparsable server payload
func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.MalformedPayload.Inc()
}

// SetConnected updates the connection gauge
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}

// RecordCaptureStarted records a started capture session
func (m *Metrics) RecordCaptureStarted() {
	if m == nil {
		return
	}
	m.CaptureSessions.Inc()
}

// SetInputRMS updates the input level gauge
func (m *Metrics) SetInputRMS(rms float64) {
	if m == nil {
		return
	}
	m.InputRMS.Set(rms)
}
