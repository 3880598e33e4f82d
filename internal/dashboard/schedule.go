package dashboard

import (
	"context"
	"time"
)

// DefaultPollInterval is the cadence of both snapshot polls.
const DefaultPollInterval = 5 * time.Second

// Task is one cancellable fixed-interval job. Each snapshot type runs under
// its own Task, so the two polls tick independently and their completions
// are unordered relative to each other.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Schedule runs fn immediately and then on every tick until Stop or ctx
// cancellation. A run that outlasts the interval delays the next tick
// rather than overlapping itself. Tests drive the same fn directly instead
// of waiting on wall-clock timers.
func Schedule(ctx context.Context, interval time.Duration, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		fn(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for the loop to exit.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}
