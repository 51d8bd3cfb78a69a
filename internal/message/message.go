// Package message defines the messages queued by a status bar and the
// completion future each one carries.
package message

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/statusbar/internal/severity"
)

// Status is the display status of a message.
type Status int32

const (
	// StatusPending means the message is queued and not yet shown.
	StatusPending Status = iota
	// StatusActive means the message is currently displayed.
	StatusActive
	// StatusDismissed means a user dismissed the message.
	StatusDismissed
	// StatusExpired means the message timed out.
	StatusExpired
	// StatusClosed means the message was withdrawn or its bar closed.
	StatusClosed
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusDismissed:
		return "dismissed"
	case StatusExpired:
		return "expired"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// statusForReason maps a completion reason to its terminal status.
func statusForReason(r Reason) Status {
	switch r {
	case ReasonDismissed:
		return StatusDismissed
	case ReasonExpired:
		return StatusExpired
	default:
		return StatusClosed
	}
}

// Validation errors.
var (
	ErrInvalidSeverity = errors.New("message severity must be info, warning or error")
	ErrEmptyType       = errors.New("message type cannot be empty")
)

// Message is a single queued notification.
// All fields are fixed at creation; only the status changes.
type Message struct {
	ID        string
	Type      string
	Severity  severity.Severity
	Content   string
	Footer    string
	Timeout   time.Duration // Zero means the message waits for dismissal
	CreatedAt time.Time

	status     atomic.Int32
	completion *Completion
}

// New creates a pending message with a fresh ULID.
func New(typeName string, sev severity.Severity, content, footer string) (*Message, error) {
	if typeName == "" {
		return nil, ErrEmptyType
	}
	if !sev.Queueable() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidSeverity, sev)
	}

	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	m := &Message{
		ID:         id.String(),
		Type:       typeName,
		Severity:   sev,
		Content:    content,
		Footer:     footer,
		CreatedAt:  now,
		completion: NewCompletion(),
	}
	m.completion.OnSettled(func(r Result) {
		m.status.Store(int32(statusForReason(r.Reason)))
	})
	return m, nil
}

// Completion returns the message's completion future.
func (m *Message) Completion() *Completion {
	return m.completion
}

// Status returns the current display status.
func (m *Message) Status() Status {
	return Status(m.status.Load())
}

// MarkActive moves a pending message to active. It has no effect once the
// message has completed.
func (m *Message) MarkActive() {
	m.status.CompareAndSwap(int32(StatusPending), int32(StatusActive))
}

// Settled reports whether the message has completed.
func (m *Message) Settled() bool {
	return m.completion.Settled()
}

// Withdraw closes the message without it being dismissed, e.g. when the
// original requester no longer needs it. Returns false if already settled.
func (m *Message) Withdraw(source string) bool {
	return m.completion.Settle(Result{Reason: ReasonClosed, Source: source})
}

// String returns a short description for logs.
func (m *Message) String() string {
	return fmt.Sprintf("%s(%s %s)", m.Type, m.Severity, m.ID)
}
