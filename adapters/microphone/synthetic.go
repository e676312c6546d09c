package microphone

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// SyntheticOptions shapes the generated signal
type SyntheticOptions struct {
	Frequency float64 // Hz, default 440
	Amplitude float64 // 0..1, default 0.3
	// DenyPermission makes Open fail as if the user refused access
	DenyPermission bool
	// Period overrides the callback cadence; zero means real time
	Period time.Duration
}

// SyntheticOpener produces a sine tone at the real device cadence.
// It stands in for a microphone in demos and tests.
type SyntheticOpener struct {
	options SyntheticOptions
	logger  *zap.Logger
}

// NewSyntheticOpener creates a synthetic device opener
func NewSyntheticOpener(options SyntheticOptions, logger *zap.Logger) *SyntheticOpener {
	if options.Frequency <= 0 {
		options.Frequency = 440
	}
	if options.Amplitude <= 0 {
		options.Amplitude = 0.3
	}
	return &SyntheticOpener{options: options, logger: logger}
}

// Open implements repositories.DeviceOpener
func (o *SyntheticOpener) Open(ctx context.Context, cfg repositories.DeviceConfig) (repositories.AudioDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.options.DenyPermission {
		return nil, domain.ErrPermissionDenied
	}
	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		return nil, domain.ErrDeviceUnavailable
	}

	period := o.options.Period
	if period <= 0 {
		period = time.Duration(cfg.BufferSize) * time.Second / time.Duration(cfg.SampleRate)
	}

	o.logger.Info("Synthetic capture device opened",
		zap.Float64("frequency", o.options.Frequency),
		zap.Duration("period", period))

	return &syntheticDevice{
		buffer:    make([]float32, cfg.BufferSize),
		step:      2 * math.Pi * o.options.Frequency / float64(cfg.SampleRate),
		amplitude: o.options.Amplitude,
		period:    period,
	}, nil
}

type syntheticDevice struct {
	buffer    []float32
	step      float64
	amplitude float64
	period    time.Duration
	phase     float64

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
	closed bool
}

func (d *syntheticDevice) Start(onSamples func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.New("synthetic device is closed")
	}
	if d.stopCh != nil {
		return nil
	}
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})

	go d.run(onSamples, d.stopCh, d.doneCh)
	return nil
}

func (d *syntheticDevice) run(onSamples func([]float32), stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			for i := range d.buffer {
				d.buffer[i] = float32(d.amplitude * math.Sin(d.phase))
				d.phase += d.step
			}
			d.phase = math.Mod(d.phase, 2*math.Pi)
			onSamples(d.buffer)
		}
	}
}

// Stop waits for an in-flight callback to finish
func (d *syntheticDevice) Stop() error {
	d.mu.Lock()
	stopCh, doneCh := d.stopCh, d.doneCh
	d.stopCh, d.doneCh = nil, nil
	d.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	<-doneCh
	return nil
}

func (d *syntheticDevice) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
