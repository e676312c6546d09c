package entities

import (
	"testing"
	"time"
)

func TestTranscriptFinalThenPartial(t *testing.T) {
	transcript := NewTranscript()

	transcript.SetPartial("hel")
	transcript.AppendFinal("hello")
	transcript.SetPartial("wor")

	finals := transcript.Finals()
	if len(finals) != 1 || finals[0] != "hello" {
		t.Errorf("Expected finals [hello], got %v", finals)
	}

	if transcript.Partial() != "wor" {
		t.Errorf("Expected partial 'wor', got '%s'", transcript.Partial())
	}
}

func TestTranscriptFinalClearsPartial(t *testing.T) {
	transcript := NewTranscript()
	transcript.SetPartial("in progress")
	transcript.AppendFinal("done")

	if transcript.Partial() != "" {
		t.Errorf("Expected empty partial after final, got '%s'", transcript.Partial())
	}
}

func TestTranscriptFinalsKeepArrivalOrder(t *testing.T) {
	transcript := NewTranscript()
	for _, s := range []string{"one", "two", "three"} {
		transcript.AppendFinal(s)
	}

	finals := transcript.Finals()
	finals[0] = "mutated"

	got := transcript.Finals()
	expected := []string{"one", "two", "three"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected finals[%d] = %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestTranscriptReset(t *testing.T) {
	transcript := NewTranscript()
	transcript.AppendFinal("a")
	transcript.SetPartial("b")
	transcript.Reset()

	if len(transcript.Finals()) != 0 || transcript.Partial() != "" {
		t.Error("Expected empty transcript after reset")
	}
}

func TestStatisticsSnapshot(t *testing.T) {
	started := time.UnixMilli(1_700_000_000_000)
	stats := NewStatistics(started)
	stats.RecordFrame(8192)
	stats.RecordFrame(8192)

	snap := stats.Snapshot(started.Add(1500 * time.Millisecond))

	if snap.Frames != 2 {
		t.Errorf("Expected 2 frames, got %d", snap.Frames)
	}
	if snap.Bytes != 16384 {
		t.Errorf("Expected 16384 bytes, got %d", snap.Bytes)
	}
	if snap.Started != started.UnixMilli() {
		t.Errorf("Expected started %d, got %d", started.UnixMilli(), snap.Started)
	}
	if snap.UptimeMs != 1500 {
		t.Errorf("Expected uptime 1500ms, got %d", snap.UptimeMs)
	}

	// sampling does not reset
	if again := stats.Snapshot(started); again.Frames != 2 {
		t.Errorf("Expected snapshot not to reset counters, got %d frames", again.Frames)
	}
}

func TestTranscriptRecordValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		record  TranscriptRecord
		wantErr bool
	}{
		{"valid", TranscriptRecord{ID: "r1", StartedAt: now, EndedAt: now.Add(time.Second)}, false},
		{"missing id", TranscriptRecord{StartedAt: now, EndedAt: now}, true},
		{"ends before start", TranscriptRecord{ID: "r1", StartedAt: now, EndedAt: now.Add(-time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTranscriptRecordText(t *testing.T) {
	record := TranscriptRecord{Segments: []string{"hello", "world"}}
	if record.Text() != "hello world" {
		t.Errorf("Expected 'hello world', got '%s'", record.Text())
	}
}
