package coordinator

import "context"

// fallbackTask is a single cancellable delayed action. Cancellation is
// cooperative: Cancel signals the task's context and then blocks until
// the goroutine has fully exited, so a cancelled task can never fire
// after Cancel returns.
type fallbackTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newFallbackTask() *fallbackTask {
	ctx, cancel := context.WithCancel(context.Background())
	return &fallbackTask{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// finish marks the task as resolved. Must be called exactly once, by the
// task goroutine, on every exit path.
func (t *fallbackTask) finish() {
	close(t.done)
}

// Cancel signals the task and waits for its goroutine to terminate.
// Safe to call on a task that has already fired or been cancelled.
func (t *fallbackTask) Cancel() {
	t.cancel()
	<-t.done
}

// Pending reports whether the task has neither fired nor been cancelled.
func (t *fallbackTask) Pending() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}
