package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PeriodicTask runs fn at a fixed rate until stopped
type PeriodicTask struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	logger   *zap.Logger

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	doneChan chan struct{}
	cancel   context.CancelFunc
}

// NewPeriodicTask creates a task; it does nothing until Start
func NewPeriodicTask(name string, interval time.Duration, fn func(ctx context.Context), logger *zap.Logger) *PeriodicTask {
	return &PeriodicTask{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
	}
}

// Start begins the loop. Starting a running task is a no-op.
func (t *PeriodicTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return
	}
	t.started = true
	t.stopChan = make(chan struct{})
	t.doneChan = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go t.loop(ctx, t.stopChan, t.doneChan)
	t.logger.Debug("Periodic task started",
		zap.String("task", t.name),
		zap.Duration("interval", t.interval))
}

// Stop ends the loop and waits for a running fn to return. It is idempotent.
// Stop must not be called from inside fn.
func (t *PeriodicTask) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	stopChan, doneChan, cancel := t.stopChan, t.doneChan, t.cancel
	t.mu.Unlock()

	close(stopChan)
	cancel()
	<-doneChan
	t.logger.Debug("Periodic task stopped", zap.String("task", t.name))
}

func (t *PeriodicTask) loop(ctx context.Context, stopChan, doneChan chan struct{}) {
	defer close(doneChan)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			t.fn(ctx)
		}
	}
}
