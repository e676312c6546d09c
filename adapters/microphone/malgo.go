package microphone

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// MalgoOpener opens the default capture device through miniaudio
type MalgoOpener struct {
	logger *zap.Logger
}

// NewMalgoOpener creates a new miniaudio device opener
func NewMalgoOpener(logger *zap.Logger) repositories.DeviceOpener {
	return &MalgoOpener{logger: logger}
}

// Open implements repositories.DeviceOpener
func (o *MalgoOpener) Open(ctx context.Context, cfg repositories.DeviceConfig) (repositories.AudioDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.BufferSize <= 0 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid capture format %d Hz / %d samples",
			domain.ErrDeviceUnavailable, cfg.SampleRate, cfg.BufferSize)
	}

	// miniaudio has no portable switch for these, the OS pipeline decides
	if cfg.EchoCancellation || cfg.NoiseSuppression || cfg.AutoGainControl {
		o.logger.Debug("Capture processing flags are not supported by miniaudio",
			zap.Bool("echo_cancellation", cfg.EchoCancellation),
			zap.Bool("noise_suppression", cfg.NoiseSuppression),
			zap.Bool("auto_gain_control", cfg.AutoGainControl))
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		o.logger.Debug("Malgo context message", zap.String("message", msg))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
	}

	d := &malgoDevice{
		ctx:        mctx,
		bufferSize: cfg.BufferSize,
		pending:    make([]float32, 0, cfg.BufferSize*2),
		logger:     o.logger,
	}

	capCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	capCfg.Capture.Format = malgo.FormatF32
	capCfg.Capture.Channels = 1
	capCfg.SampleRate = uint32(cfg.SampleRate)
	capCfg.PeriodSizeInFrames = uint32(cfg.BufferSize)

	// alsa specific settings for linux
	if runtime.GOOS == "linux" {
		capCfg.Alsa.NoMMap = 1
	}

	device, err := malgo.InitDevice(mctx.Context, capCfg, malgo.DeviceCallbacks{Data: d.onData})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
	}
	d.device = device

	o.logger.Info("Capture device opened",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("buffer_size", cfg.BufferSize))
	return d, nil
}

// malgoDevice regroups miniaudio periods into fixed-size blocks
type malgoDevice struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	bufferSize int
	logger     *zap.Logger

	mu        sync.Mutex
	onSamples func([]float32)
	pending   []float32
	released  bool
}

func (d *malgoDevice) Start(onSamples func([]float32)) error {
	d.mu.Lock()
	d.onSamples = onSamples
	d.pending = d.pending[:0]
	d.mu.Unlock()

	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (d *malgoDevice) onData(_, input []byte, frameCount uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.onSamples == nil {
		return
	}
	for i := 0; i < int(frameCount) && (i+1)*4 <= len(input); i++ {
		d.pending = append(d.pending, math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:])))
	}
	for len(d.pending) >= d.bufferSize {
		d.onSamples(d.pending[:d.bufferSize])
		d.pending = append(d.pending[:0], d.pending[d.bufferSize:]...)
	}
}

func (d *malgoDevice) Stop() error {
	d.mu.Lock()
	d.onSamples = nil
	d.mu.Unlock()

	if !d.device.IsStarted() {
		return nil
	}
	return d.device.Stop()
}

func (d *malgoDevice) Close() error {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return nil
	}
	d.released = true
	d.mu.Unlock()

	d.device.Uninit()
	err := d.ctx.Uninit()
	d.ctx.Free()
	if err != nil {
		return fmt.Errorf("failed to release audio context: %w", err)
	}
	return nil
}
