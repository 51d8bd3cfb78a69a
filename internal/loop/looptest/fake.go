// Package looptest provides a deterministic event loop with a virtual clock.
package looptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/statusbar/internal/loop"
)

// Epoch is the initial virtual time of a Fake.
var Epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeTask struct {
	due     time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
	owner   *Fake
}

// Stop implements loop.Timer.
func (t *fakeTask) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fake is an event loop driven explicitly by the test. Nothing runs until
// Flush or Advance is called, and time only moves through Advance.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*fakeTask
}

// New returns a Fake whose clock starts at Epoch.
func New() *Fake {
	return &Fake{now: Epoch}
}

// Now returns the virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Schedule queues fn to run once the virtual clock reaches now+d.
func (f *Fake) Schedule(d time.Duration, fn func()) loop.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTask{due: f.now.Add(d), seq: f.seq, fn: fn, owner: f}
	f.tasks = append(f.tasks, t)
	return t
}

// Do runs fn immediately in the caller's goroutine.
func (f *Fake) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}

// Flush runs every task that is due at the current virtual time, including
// tasks those tasks schedule with no delay.
func (f *Fake) Flush() {
	f.Advance(0)
}

// Advance moves the clock forward by d, running due tasks in order of due
// time and scheduling order. The clock reads each task's due time while the
// task runs.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		t := f.next(target)
		if t == nil {
			break
		}
		t.fn()
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// next pops the earliest runnable task due at or before target.
func (f *Fake) next(target time.Time) *fakeTask {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := f.tasks[:0]
	for _, t := range f.tasks {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	f.tasks = live

	sort.SliceStable(f.tasks, func(i, j int) bool {
		if f.tasks[i].due.Equal(f.tasks[j].due) {
			return f.tasks[i].seq < f.tasks[j].seq
		}
		return f.tasks[i].due.Before(f.tasks[j].due)
	})

	if len(f.tasks) == 0 || f.tasks[0].due.After(target) {
		return nil
	}
	t := f.tasks[0]
	t.fired = true
	if t.due.After(f.now) {
		f.now = t.due
	}
	return t
}

// Pending returns the number of tasks that have not run or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
