// Package input provides the sources that feed events into status bars
// and the router that delivers them.
package input

import (
	"context"
	"os"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Action selects what an event does.
type Action string

const (
	// ActionQueue queues a new message. It is the default.
	ActionQueue Action = "queue"
	// ActionDismiss dismisses the message a bar is showing.
	ActionDismiss Action = "dismiss"
	// ActionWithdraw withdraws a previously queued message by ID.
	ActionWithdraw Action = "withdraw"
)

// Event is an event read from a source.
type Event struct {
	statusbar.Event

	Action Action
	Bar    string // Target bar; empty lets the router pick one
	ID     string // Message ID for ActionWithdraw
	Source string // Name of the source the event came from
}

// Handler consumes events.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Source produces events until its input ends or ctx is cancelled.
type Source interface {
	// Name returns the source identifier (e.g., "stdin", "dbus").
	Name() string

	// Run delivers events to h. It returns nil when the input ends.
	Run(ctx context.Context, h Handler) error
}

// NewLineSource creates a line source for path. "-" and "" read standard
// input.
func NewLineSource(path string) (*LineSource, error) {
	if path == "" || path == "-" {
		return NewLineSourceWithReader("stdin", os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &AdapterError{
			Source:  path,
			Message: "failed to open input",
			Err:     err,
		}
	}
	s := NewLineSourceWithReader(path, f)
	s.closer = f
	return s, nil
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
