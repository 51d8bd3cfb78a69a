package message

import (
	"context"
	"sync"
	"time"
)

// Reason describes how a message completed.
type Reason int

const (
	// ReasonDismissed means a user dismissed the message.
	ReasonDismissed Reason = iota + 1
	// ReasonExpired means the message's auto-dismiss timeout fired.
	ReasonExpired
	// ReasonClosed means the message was withdrawn or its bar was torn down.
	ReasonClosed
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonDismissed:
		return "dismissed"
	case ReasonExpired:
		return "expired"
	case ReasonClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Result is the value a completion settles with: a snapshot of what was
// displayed when the message finished, plus the interaction that finished it.
type Result struct {
	Reason  Reason
	Content string
	Footer  string
	Source  string // e.g. "key:x", "timeout", "shutdown"
	At      time.Time
}

// Completion is a settle-once future attached to a message.
// It may be settled and awaited from any goroutine.
type Completion struct {
	mu        sync.Mutex
	done      chan struct{}
	result    Result
	settled   bool
	callbacks []func(Result)
}

// NewCompletion returns an unsettled completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Settle resolves the completion. Only the first call has any effect;
// it returns false if the completion was already settled.
// Registered callbacks run synchronously in the caller's goroutine.
func (c *Completion) Settle(r Result) bool {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return false
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	c.settled = true
	c.result = r
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(r)
	}
	return true
}

// OnSettled registers fn to run once the completion settles.
// If it has already settled, fn runs immediately.
func (c *Completion) OnSettled(fn func(Result)) {
	c.mu.Lock()
	if c.settled {
		r := c.result
		c.mu.Unlock()
		fn(r)
		return
	}
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// Done returns a channel that is closed when the completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the completion has settled.
func (c *Completion) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Result returns the settled result, and false if not yet settled.
func (c *Completion) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.settled
}

// Wait blocks until the completion settles or ctx is done.
func (c *Completion) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		r, _ := c.Result()
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
