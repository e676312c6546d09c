package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordFrameSent(8192)
	m.RecordFrameSent(8192)
	m.RecordFrameDropped()
	m.RecordMessage("final")
	m.RecordMalformed()
	m.SetConnected(true)

	if v := testutil.ToFloat64(m.FramesSent); v != 2 {
		t.Errorf("Expected 2 frames sent, got %v", v)
	}
	if v := testutil.ToFloat64(m.BytesSent); v != 16384 {
		t.Errorf("Expected 16384 bytes sent, got %v", v)
	}
	if v := testutil.ToFloat64(m.MessagesReceived.WithLabelValues("final")); v != 1 {
		t.Errorf("Expected 1 final message, got %v", v)
	}
	if v := testutil.ToFloat64(m.Connected); v != 1 {
		t.Errorf("Expected connected gauge 1, got %v", v)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordFrameSent(10)
	m.RecordFrameDropped()
	m.RecordMessage("partial")
	m.SetConnected(false)
	m.SetInputRMS(0.3)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordFrameSent(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "stt_frames_sent_total 1") {
		t.Errorf("Expected frames counter in output, got:\n%s", rec.Body.String())
	}
}
