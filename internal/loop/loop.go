// Package loop provides the event loop that status bars run on.
//
// Every state transition of a bar executes as a task on one goroutine, so
// bar state needs no locking. Tasks are either posted for the next tick or
// deferred with a cancellable timer.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned by Do when the loop stops before running the task.
var ErrStopped = errors.New("event loop stopped")

// Timer is a handle to a scheduled task.
type Timer interface {
	// Stop cancels the task. It returns false if the task already ran
	// or was already stopped.
	Stop() bool
}

const (
	taskPending int32 = iota
	taskFired
	taskStopped
)

// task is a unit of work scheduled on the loop.
type task struct {
	fn    func()
	state atomic.Int32
	timer *time.Timer
}

// Stop implements Timer.
func (t *task) Stop() bool {
	if !t.state.CompareAndSwap(taskPending, taskStopped) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

// Loop runs tasks one at a time on a dedicated goroutine.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []*task
	started bool
	stopped bool

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a loop. Call Start before scheduling work that must run.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling Start twice is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true
	go l.run()
	l.logger.Debug("event loop started")
}

// Stop stops the loop and waits for the running task to finish.
// Pending tasks are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	started := l.started
	l.queue = nil
	close(l.stopCh)
	l.mu.Unlock()

	if started {
		<-l.doneCh
	}
	l.logger.Debug("event loop stopped")
}

// Now returns the current time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Schedule runs fn on the loop after d. A d of zero or less runs fn on the
// next tick, after tasks already queued.
func (l *Loop) Schedule(d time.Duration, fn func()) Timer {
	t := &task{fn: fn}
	if d <= 0 {
		l.post(t)
		return t
	}
	t.timer = time.AfterFunc(d, func() { l.post(t) })
	return t
}

// Do runs fn on the loop and waits for it to return.
// It must not be called from a task running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.post(&task{fn: func() {
		defer close(done)
		fn()
	}})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// post appends a task to the queue and wakes the loop.
func (l *Loop) post(t *task) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run is the loop goroutine.
func (l *Loop) run() {
	defer close(l.doneCh)

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.wake:
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			for _, t := range batch {
				select {
				case <-l.stopCh:
					return
				default:
				}
				l.exec(t)
			}
		}
	}
}

// exec runs a task unless it was stopped, recovering from panics so one
// faulty callback does not take the loop down.
func (l *Loop) exec(t *task) {
	if !t.state.CompareAndSwap(taskPending, taskFired) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", "panic", r)
		}
	}()
	t.fn()
}
