package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
)

// Options configures a capture Session
type Options struct {
	Device repositories.DeviceConfig
	// Framer converts each callback buffer. Nil disables framing.
	Framer *audio.Framer
	// Sink receives every frame. It must not block; a frame it cannot take is lost.
	Sink func(frame audio.Frame)
	// OnSamples, when set, sees the raw callback buffer before framing.
	// The buffer is only valid during the call.
	OnSamples func(samples []float32)
	Metrics   *metrics.Metrics
}

// Session owns one recording: device acquisition, frame production and teardown.
type Session struct {
	opener  repositories.DeviceOpener
	options Options
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	device  repositories.AudioDevice
	stopped *atomic.Bool
}

// NewSession creates an idle capture session
func NewSession(opener repositories.DeviceOpener, options Options, logger *zap.Logger) *Session {
	options.Device.Channels = 1
	return &Session{
		opener:  opener,
		options: options,
		logger:  logger,
	}
}

// Start acquires the device and returns once frames are flowing.
// It fails with the device error, leaving nothing running. Starting a running
// session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug("Capture already running")
		return nil
	}

	device, err := s.opener.Open(ctx, s.options.Device)
	if err != nil {
		s.logger.Warn("Failed to acquire capture device", zap.Error(err))
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}

	// Each run gets its own flag so a late callback from a previous device
	// can never feed a newer run.
	stopped := &atomic.Bool{}
	if err := device.Start(s.process(stopped)); err != nil {
		stopped.Store(true)
		if closeErr := device.Close(); closeErr != nil {
			s.logger.Warn("Failed to release capture device", zap.Error(closeErr))
		}
		s.logger.Warn("Failed to start capture device", zap.Error(err))
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	s.device = device
	s.stopped = stopped
	s.running = true
	s.options.Metrics.RecordCaptureStarted()

	s.logger.Info("Capture started",
		zap.Int("sample_rate", s.options.Device.SampleRate),
		zap.Int("buffer_size", s.options.Device.BufferSize))
	return nil
}

func (s *Session) process(stopped *atomic.Bool) func([]float32) {
	return func(samples []float32) {
		if stopped.Load() {
			return
		}
		if s.options.OnSamples != nil {
			s.options.OnSamples(samples)
		}
		if s.options.Framer == nil {
			return
		}
		frame := s.options.Framer.Frame(samples)
		if s.options.Sink != nil {
			s.options.Sink(frame)
		}
	}
}

// Stop ends frame production, then stops and releases the device.
// Teardown errors are logged, never returned. Stopping an idle session is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.stopped.Store(true)

	device := s.device
	s.device = nil

	if err := device.Stop(); err != nil {
		s.logger.Warn("Failed to stop capture device", zap.Error(err))
	}
	if err := device.Close(); err != nil {
		s.logger.Warn("Failed to release capture device", zap.Error(err))
	}

	s.logger.Info("Capture stopped")
	return nil
}

// Running reports whether frames are being produced
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
