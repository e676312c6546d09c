package capture

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
)

// fakeDevice records teardown calls and lets the test drive callbacks
type fakeDevice struct {
	mu        sync.Mutex
	calls     []string
	onSamples func([]float32)
	startErr  error
	stopErr   error
	closeErr  error
}

func (d *fakeDevice) Start(onSamples func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "start")
	if d.startErr != nil {
		return d.startErr
	}
	d.onSamples = onSamples
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "stop")
	return d.stopErr
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "close")
	return d.closeErr
}

func (d *fakeDevice) emit(samples []float32) {
	d.mu.Lock()
	cb := d.onSamples
	d.mu.Unlock()
	if cb != nil {
		cb(samples)
	}
}

func (d *fakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

type fakeOpener struct {
	device *fakeDevice
	err    error
	opens  int
	config repositories.DeviceConfig
}

func (o *fakeOpener) Open(ctx context.Context, cfg repositories.DeviceConfig) (repositories.AudioDevice, error) {
	o.opens++
	o.config = cfg
	if o.err != nil {
		return nil, o.err
	}
	return o.device, nil
}

func newTestSession(t *testing.T, opener *fakeOpener, sink func(audio.Frame)) *Session {
	return NewSession(opener, Options{
		Device: repositories.DeviceConfig{SampleRate: 16000, BufferSize: 4, Channels: 2, EchoCancellation: true},
		Framer: audio.NewFramer(audio.NewSnapshot(), nil),
		Sink:   sink,
	}, zaptest.NewLogger(t))
}

func TestSession_StartDeliversFrames(t *testing.T) {
	device := &fakeDevice{}
	opener := &fakeOpener{device: device}

	var frames []audio.Frame
	session := newTestSession(t, opener, func(f audio.Frame) { frames = append(frames, f) })

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !session.Running() {
		t.Fatal("Session should be running after Start returns")
	}
	if opener.config.Channels != 1 {
		t.Errorf("Capture must be mono, got %d channels", opener.config.Channels)
	}
	if !opener.config.EchoCancellation {
		t.Error("Echo cancellation flag should be passed through")
	}

	device.emit([]float32{0, 1, -1, 2})
	device.emit([]float32{0.5, -0.5, 0, 0})

	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	want := audio.Frame{0, 32767, -32768, 32767}
	if !reflect.DeepEqual(frames[0], want) {
		t.Errorf("Expected %v, got %v", want, frames[0])
	}
}

func TestSession_StartWhileRunningIsNoop(t *testing.T) {
	opener := &fakeOpener{device: &fakeDevice{}}
	session := newTestSession(t, opener, nil)

	for i := 0; i < 2; i++ {
		if err := session.Start(context.Background()); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}
	if opener.opens != 1 {
		t.Errorf("Device should be opened once, got %d", opener.opens)
	}
}

func TestSession_PermissionDenied(t *testing.T) {
	opener := &fakeOpener{err: domain.ErrPermissionDenied}
	session := newTestSession(t, opener, nil)

	err := session.Start(context.Background())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Expected permission error, got %v", err)
	}
	if session.Running() {
		t.Error("Session must not be running after a failed start")
	}
}

func TestSession_DeviceStartFailureReleasesDevice(t *testing.T) {
	device := &fakeDevice{startErr: errors.New("boom")}
	session := newTestSession(t, &fakeOpener{device: device}, nil)

	if err := session.Start(context.Background()); err == nil {
		t.Fatal("Expected start error")
	}
	if session.Running() {
		t.Error("Session must not be running after a failed start")
	}
	if got := device.Calls(); !reflect.DeepEqual(got, []string{"start", "close"}) {
		t.Errorf("Expected device to be released, calls %v", got)
	}
}

func TestSession_StopIsIdempotentAndOrdered(t *testing.T) {
	device := &fakeDevice{}
	var frames int
	session := newTestSession(t, &fakeOpener{device: device}, func(audio.Frame) { frames++ })

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := session.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := session.Stop(context.Background()); err != nil {
		t.Fatalf("Second stop failed: %v", err)
	}

	if got := device.Calls(); !reflect.DeepEqual(got, []string{"start", "stop", "close"}) {
		t.Errorf("Unexpected teardown sequence %v", got)
	}

	// A callback already scheduled by the device must not produce a frame.
	device.emit([]float32{0.1, 0.1, 0.1, 0.1})
	if frames != 0 {
		t.Errorf("No frames may be produced after stop, got %d", frames)
	}
}

func TestSession_TeardownErrorsAreSuppressed(t *testing.T) {
	device := &fakeDevice{stopErr: errors.New("disconnect failed"), closeErr: errors.New("close failed")}
	session := newTestSession(t, &fakeOpener{device: device}, nil)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := session.Stop(context.Background()); err != nil {
		t.Errorf("Teardown errors must be swallowed, got %v", err)
	}
	if got := device.Calls(); !reflect.DeepEqual(got, []string{"start", "stop", "close"}) {
		t.Errorf("Close must run even when stop fails, calls %v", got)
	}
	if session.Running() {
		t.Error("Session should be stopped")
	}
}

func TestSession_RawTapSeesUnclampedSamples(t *testing.T) {
	device := &fakeDevice{}
	var raw []float32
	session := NewSession(&fakeOpener{device: device}, Options{
		Device:    repositories.DeviceConfig{SampleRate: 16000, BufferSize: 2},
		OnSamples: func(s []float32) { raw = append(raw, s...) },
	}, zaptest.NewLogger(t))

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	device.emit([]float32{1.5, -2})

	if !reflect.DeepEqual(raw, []float32{1.5, -2}) {
		t.Errorf("Expected raw samples, got %v", raw)
	}
}
