package audio

import (
	"encoding/binary"
	"math"
)

const (
	// DefaultSampleRate is the rate the backend expects
	DefaultSampleRate = 16000
	// DefaultBufferSize is the number of samples per capture callback
	DefaultBufferSize = 4096
)

// Frame is one callback's worth of mono 16-bit PCM
type Frame []int16

// Bytes encodes the frame as little-endian 16-bit samples
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f)*2)
	for i, v := range f {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Level is the signal level of one buffer, computed on clamped samples
type Level struct {
	RMS  float64 `json:"rms"`
	Peak float64 `json:"peak"`
}

// Framer converts raw float callback buffers into transmittable frames
type Framer struct {
	snapshot *Snapshot
	onLevel  func(Level)
}

// NewFramer creates a framer. Both arguments are optional.
func NewFramer(snapshot *Snapshot, onLevel func(Level)) *Framer {
	return &Framer{snapshot: snapshot, onLevel: onLevel}
}

// Frame converts samples to a Frame, publishing the raw buffer to the snapshot
// and reporting the level when a listener is registered.
func (f *Framer) Frame(samples []float32) Frame {
	if f.snapshot != nil {
		f.snapshot.Store(samples)
	}

	frame := make(Frame, len(samples))
	if f.onLevel == nil {
		for i, s := range samples {
			frame[i] = ConvertSample(s)
		}
		return frame
	}

	var sumSquares, peak float64
	for i, s := range samples {
		c := Clamp(s)
		frame[i] = convertClamped(c)

		v := float64(c)
		sumSquares += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	level := Level{Peak: peak}
	if len(samples) > 0 {
		level.RMS = math.Sqrt(sumSquares / float64(len(samples)))
	}
	f.onLevel(level)

	return frame
}

// Clamp limits s to [-1, 1]
func Clamp(s float32) float32 {
	if s < -1 {
		return -1
	}
	if s > 1 {
		return 1
	}
	return s
}

// ConvertSample maps a float sample to int16, clamping first.
// Negative values scale by 32768 and non-negative values by 32767.
func ConvertSample(s float32) int16 {
	return convertClamped(Clamp(s))
}

func convertClamped(s float32) int16 {
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}

// ToInt16 converts a whole buffer without publishing or metering
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = ConvertSample(s)
	}
	return out
}

// ToFloat32 converts 16-bit PCM back to floats in [-1, 1)
func ToFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, v := range pcm {
		out[i] = float32(v) / 32768.0
	}
	return out
}
