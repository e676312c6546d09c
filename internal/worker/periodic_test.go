package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestPeriodicTaskRunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	task := NewPeriodicTask("test", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}, zaptest.NewLogger(t))

	task.Start()
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	task.Stop()

	if runs.Load() < 3 {
		t.Fatalf("Expected at least 3 runs, got %d", runs.Load())
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("Task kept running after Stop: %d -> %d", after, runs.Load())
	}
}

func TestPeriodicTaskStopIsIdempotent(t *testing.T) {
	task := NewPeriodicTask("idle", time.Hour, func(ctx context.Context) {}, zaptest.NewLogger(t))

	task.Stop()
	task.Start()
	task.Start()
	task.Stop()
	task.Stop()
}

func TestPeriodicTaskContextCancelledOnStop(t *testing.T) {
	entered := make(chan struct{})
	finished := make(chan struct{})
	task := NewPeriodicTask("blocking", time.Millisecond, func(ctx context.Context) {
		select {
		case entered <- struct{}{}:
		default:
			return
		}
		<-ctx.Done()
		close(finished)
	}, zaptest.NewLogger(t))

	task.Start()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Task never ran")
	}
	task.Stop()

	select {
	case <-finished:
	default:
		t.Error("Expected fn to observe cancellation before Stop returned")
	}
}
