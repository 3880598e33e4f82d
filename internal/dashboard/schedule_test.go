package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int64

	task := Schedule(context.Background(), 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})
	defer task.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, runs.Load(), int64(3))
}

func TestScheduleStopHaltsRuns(t *testing.T) {
	var runs atomic.Int64

	task := Schedule(context.Background(), 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})
	task.Stop()

	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())
}

func TestScheduleStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	task := Schedule(ctx, 10*time.Millisecond, func(context.Context) {})
	go func() {
		cancel()
		<-task.done
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not exit after context cancel")
	}
}

func TestScheduleCancelledContextReachesRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := make(chan error, 1)
	task := Schedule(ctx, time.Hour, func(runCtx context.Context) {
		got <- runCtx.Err()
	})
	defer task.Stop()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first run never happened")
	}
}
