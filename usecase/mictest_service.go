package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/internal/capture"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
	"github.com/satriahrh/arunika/sttconsole/internal/worker"
)

const (
	defaultMicTestDuration = 5 * time.Second
	countdownTick          = 100 * time.Millisecond
)

// MicTestConfig configures a MicTestService
type MicTestConfig struct {
	Device   repositories.DeviceConfig
	Duration time.Duration
}

// MicTestStatus describes the mic test page
type MicTestStatus struct {
	Recording    bool    `json:"recording"`
	Countdown    int     `json:"countdown"` // whole seconds left, rounded up
	HasRecording bool    `json:"has_recording"`
	Seconds      float64 `json:"seconds"` // length of the captured audio
}

// MicTestService records a short clip locally and offers it back as WAV.
// Nothing is sent to the backend.
type MicTestService struct {
	opener  repositories.DeviceOpener
	config  MicTestConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	snapshot *audio.Snapshot

	mu        sync.Mutex
	run       uint64
	recording bool
	startedAt time.Time
	chunks    [][]float32
	samples   int
	session   *capture.Session
	countdown *worker.PeriodicTask
	done      chan struct{}
	wav       []byte
}

// NewMicTestService creates an idle mic test
func NewMicTestService(opener repositories.DeviceOpener, config MicTestConfig, m *metrics.Metrics, logger *zap.Logger) *MicTestService {
	if config.Duration <= 0 {
		config.Duration = defaultMicTestDuration
	}
	return &MicTestService{
		opener:   opener,
		config:   config,
		metrics:  m,
		logger:   logger,
		snapshot: audio.NewSnapshot(),
	}
}

// Start begins recording; it stops by itself after the configured duration.
// Starting while recording is a no-op.
func (s *MicTestService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return nil
	}
	s.run++
	run := s.run
	s.recording = true
	s.wav = nil
	s.chunks = nil
	s.samples = 0
	s.done = make(chan struct{})
	s.snapshot.Reset()
	s.mu.Unlock()

	session := capture.NewSession(s.opener, capture.Options{
		Device: s.config.Device,
		OnSamples: func(samples []float32) {
			s.snapshot.Store(samples)
			chunk := append([]float32(nil), samples...)
			s.mu.Lock()
			if s.run == run && s.recording {
				s.chunks = append(s.chunks, chunk)
				s.samples += len(chunk)
			}
			s.mu.Unlock()
		},
		Metrics: s.metrics,
	}, s.logger)

	if err := session.Start(ctx); err != nil {
		s.mu.Lock()
		// A Stop during acquisition has already finished this run
		if s.run == run && s.recording {
			s.recording = false
			close(s.done)
		}
		s.mu.Unlock()
		return err
	}

	countdown := worker.NewPeriodicTask("mictest-countdown", countdownTick, func(context.Context) {
		if s.remaining() <= 0 {
			// finish stops this task, so it cannot run on the task goroutine
			go s.finish(context.Background(), run)
		}
	}, s.logger)

	s.mu.Lock()
	if s.run != run || !s.recording {
		s.mu.Unlock()
		session.Stop(ctx)
		return nil
	}
	s.session = session
	s.countdown = countdown
	s.startedAt = time.Now()
	s.mu.Unlock()

	countdown.Start()
	s.logger.Info("Mic test recording started", zap.Duration("duration", s.config.Duration))
	return nil
}

// Stop ends the recording early and builds the WAV clip
func (s *MicTestService) Stop(ctx context.Context) error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	s.finish(ctx, run)
	return nil
}

func (s *MicTestService) finish(ctx context.Context, run uint64) {
	s.mu.Lock()
	if !s.recording || s.run != run {
		s.mu.Unlock()
		return
	}
	s.recording = false
	session, countdown := s.session, s.countdown
	s.session, s.countdown = nil, nil
	s.mu.Unlock()

	if countdown != nil {
		countdown.Stop()
	}
	if session != nil {
		session.Stop(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]float32, 0, s.samples)
	for _, chunk := range s.chunks {
		all = append(all, chunk...)
	}
	s.chunks = nil

	if len(all) > 0 {
		wav, err := audio.EncodeWAVFloat32(all, s.config.Device.SampleRate)
		if err != nil {
			s.logger.Error("Failed to encode mic test recording", zap.Error(err))
		} else {
			s.wav = wav
		}
	}
	s.logger.Info("Mic test recording finished", zap.Int("samples", len(all)))
	close(s.done)
}

func (s *MicTestService) remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording || s.startedAt.IsZero() {
		return s.config.Duration
	}
	return s.config.Duration - time.Since(s.startedAt)
}

// Status returns the recording state and countdown
func (s *MicTestService) Status() MicTestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := MicTestStatus{
		Recording:    s.recording,
		HasRecording: s.wav != nil,
	}
	if s.config.Device.SampleRate > 0 {
		status.Seconds = float64(s.samples) / float64(s.config.Device.SampleRate)
	}
	if s.recording {
		remain := s.config.Duration
		if !s.startedAt.IsZero() {
			remain -= time.Since(s.startedAt)
		}
		if remain > 0 {
			status.Countdown = int(math.Ceil(remain.Seconds()))
		}
	}
	return status
}

// Recording returns the last finished clip as a WAV file
func (s *MicTestService) Recording() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wav == nil {
		return nil, domain.ErrNoRecording
	}
	return s.wav, nil
}

// Clear discards the last clip
func (s *MicTestService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return domain.ErrSessionRunning
	}
	s.wav = nil
	s.samples = 0
	return nil
}

// Waveform returns the envelope of the latest captured buffer
func (s *MicTestService) Waveform(width int) []audio.Column {
	return audio.Envelope(s.snapshot.Load(), width)
}

// Record runs a full recording and waits for it to finish. Cancelling ctx
// stops the recording early.
func (s *MicTestService) Record(ctx context.Context) ([]byte, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		s.Stop(context.Background())
	}
	return s.Recording()
}
