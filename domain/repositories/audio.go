package repositories

import "context"

// DeviceConfig describes the capture stream to open
type DeviceConfig struct {
	SampleRate       int  `json:"sample_rate"`
	BufferSize       int  `json:"buffer_size"` // samples per callback
	Channels         int  `json:"channels"`
	EchoCancellation bool `json:"echo_cancellation"`
	NoiseSuppression bool `json:"noise_suppression"`
	AutoGainControl  bool `json:"auto_gain_control"`
}

// DeviceOpener acquires a capture device. Acquisition may block on user permission.
type DeviceOpener interface {
	Open(ctx context.Context, config DeviceConfig) (AudioDevice, error)
}

// AudioDevice is an acquired capture device
type AudioDevice interface {
	// Start begins delivering fixed-size float buffers to onSamples.
	// The buffer is only valid for the duration of the call.
	Start(onSamples func(samples []float32)) error
	// Stop disconnects the processing callback.
	Stop() error
	// Close releases the device and its audio context.
	Close() error
}
