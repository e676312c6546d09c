package audio

import (
	"math"
	"testing"
)

func TestConvertSample(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int16
	}{
		{"zero", 0, 0},
		{"full positive", 1, 32767},
		{"full negative", -1, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamped positive", 3.7, 32767},
		{"clamped negative", -12, -32768},
		{"positive infinity", float32(math.Inf(1)), 32767},
		{"negative infinity", float32(math.Inf(-1)), -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertSample(tt.in); got != tt.want {
				t.Errorf("ConvertSample(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertSampleStaysInRange(t *testing.T) {
	for s := float32(-4); s <= 4; s += 0.001 {
		v := ConvertSample(s)
		if s >= 1 && v != 32767 {
			t.Fatalf("ConvertSample(%v) = %d, expected clamp to 32767", s, v)
		}
		if s <= -1 && v != -32768 {
			t.Fatalf("ConvertSample(%v) = %d, expected clamp to -32768", s, v)
		}
	}
}

func TestFramerLevel(t *testing.T) {
	tests := []struct {
		name     string
		samples  []float32
		wantRMS  float64
		wantPeak float64
	}{
		{"silence", make([]float32, DefaultBufferSize), 0, 0},
		{"full scale", fill(DefaultBufferSize, 1), 1, 1},
		{"over range is clamped", fill(DefaultBufferSize, 2.5), 1, 1},
		{"negative full scale", fill(8, -1), 1, 1},
		{"mixed", []float32{0.5, -0.5, 0.5, -0.5}, 0.5, 0.5},
		{"empty", []float32{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Level
			calls := 0
			framer := NewFramer(nil, func(l Level) {
				got = l
				calls++
			})

			frame := framer.Frame(tt.samples)

			if len(frame) != len(tt.samples) {
				t.Errorf("Expected frame length %d, got %d", len(tt.samples), len(frame))
			}
			if calls != 1 {
				t.Errorf("Expected one level callback, got %d", calls)
			}
			if math.Abs(got.RMS-tt.wantRMS) > 1e-6 {
				t.Errorf("Expected RMS %v, got %v", tt.wantRMS, got.RMS)
			}
			if math.Abs(got.Peak-tt.wantPeak) > 1e-6 {
				t.Errorf("Expected peak %v, got %v", tt.wantPeak, got.Peak)
			}
		})
	}
}

func TestFramerPublishesRawSnapshot(t *testing.T) {
	snapshot := NewSnapshot()
	framer := NewFramer(snapshot, nil)

	input := []float32{1.5, -0.25, 0}
	frame := framer.Frame(input)

	if frame[0] != 32767 {
		t.Errorf("Expected clamped first sample, got %d", frame[0])
	}

	latest := snapshot.Load()
	if len(latest) != 3 || latest[0] != 1.5 {
		t.Errorf("Expected raw unclamped snapshot, got %v", latest)
	}

	// the device may reuse its buffer after the callback returns
	input[1] = 0.9
	if snapshot.Load()[1] != -0.25 {
		t.Error("Snapshot must not alias the callback buffer")
	}

	framer.Frame([]float32{0.1})
	if len(snapshot.Load()) != 1 {
		t.Error("Expected last write to win")
	}
}

func TestFrameBytesLittleEndian(t *testing.T) {
	frame := Frame{1, -1, 0x1234}
	b := frame.Bytes()
	want := []byte{0x01, 0x00, 0xff, 0xff, 0x34, 0x12}
	if len(b) != len(want) {
		t.Fatalf("Expected %d bytes, got %d", len(want), len(b))
	}
	for i := range want {
		if b[i] != want[i] {
			t.Errorf("byte %d: expected %#x, got %#x", i, want[i], b[i])
		}
	}
}

func TestSnapshotEmpty(t *testing.T) {
	snapshot := NewSnapshot()
	if snapshot.Load() != nil {
		t.Error("Expected nil from empty snapshot")
	}
	snapshot.Store([]float32{1})
	snapshot.Reset()
	if snapshot.Load() != nil {
		t.Error("Expected nil after reset")
	}
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
