// Package statusbar implements a single-slot priority message display.
//
// A StatusBar queues messages per severity and shows at most one at a time,
// always choosing the oldest message of the highest populated severity. A
// displayed message stays until its completion settles (a dismissal, its
// timeout, or a withdrawal); the bar then pauses for FollowUpDelay and shows
// the next message or returns to its ready content.
//
// All state lives on the bar's event loop. Exported methods marshal onto the
// loop and are safe for concurrent use.
package statusbar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/statusbar/internal/loop"
	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/queue"
	"github.com/jmylchreest/statusbar/internal/severity"
)

const (
	// FollowUpDelay is the pause between hiding one message and showing
	// the next one (or the ready content).
	FollowUpDelay = 200 * time.Millisecond

	// DefaultReadyContent is shown while nothing is queued.
	DefaultReadyContent = "ready"

	// NoTimeout as an Event timeout keeps the message until it is
	// dismissed or withdrawn, overriding the bar's default.
	NoTimeout time.Duration = -1
)

// Errors returned by a StatusBar.
var (
	ErrClosed          = errors.New("status bar is closed")
	ErrNotSubscribed   = errors.New("notification type is not subscribed")
	ErrNoActiveMessage = errors.New("no message is displayed")
)

// Loop is the event loop a bar runs on.
type Loop interface {
	Schedule(d time.Duration, fn func()) loop.Timer
	Do(ctx context.Context, fn func()) error
	Now() time.Time
}

// Event is a typed notification handed to a bar by an input binding.
type Event struct {
	Type    string
	Content string
	Footer  string
	Timeout time.Duration // Zero uses the bar's default, NoTimeout never expires
}

// Options configures a StatusBar.
type Options struct {
	Name         string
	Events       []string // Subscribed type names
	ReadyContent string   // Empty uses DefaultReadyContent
	Table        *severity.Table
	Timeouts     map[severity.Severity]time.Duration
	Surface      Surface
	Logger       *slog.Logger
}

// State is a snapshot of a bar.
type State struct {
	Level  severity.Severity
	Active *message.Message
	Queued queue.Counts
	View   View
	Closed bool
}

// StatusBar is one priority message display.
type StatusBar struct {
	name    string
	loop    Loop
	table   *severity.Table
	surface Surface
	logger  *slog.Logger

	// Everything below is only touched on the loop.
	events       map[string]bool
	readyContent string
	timeouts     map[severity.Severity]time.Duration
	queues       *queue.Store

	level        severity.Severity
	active       *message.Message
	pending      loop.Timer // Scheduled show or ready transition
	pendingReady bool       // pending leads back to the ready content
	pauseUntil   time.Time  // End of the current follow-up pause
	expiry       loop.Timer // Auto-dismiss of the active message
	view         View
	published    bool
	closed       bool
}

// New creates a bar and schedules publication of its ready content.
func New(l Loop, opts Options) (*StatusBar, error) {
	if opts.Table == nil {
		opts.Table = severity.DefaultTable()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Surface == nil {
		opts.Surface = SurfaceFunc(func(View) {})
	}
	if opts.ReadyContent == "" {
		opts.ReadyContent = DefaultReadyContent
	}

	events, err := subscriptions(opts.Table, opts.Events)
	if err != nil {
		return nil, err
	}

	timeouts := make(map[severity.Severity]time.Duration, len(opts.Timeouts))
	for sev, d := range opts.Timeouts {
		timeouts[sev] = d
	}

	b := &StatusBar{
		name:         opts.Name,
		loop:         l,
		table:        opts.Table,
		surface:      opts.Surface,
		logger:       opts.Logger.With("bar", opts.Name),
		events:       events,
		readyContent: opts.ReadyContent,
		timeouts:     timeouts,
		queues:       queue.New(),
	}

	l.Schedule(0, func() {
		if b.closed || b.published {
			return
		}
		b.publish(b.readyView())
	})
	return b, nil
}

// subscriptions validates a list of type names against the table.
func subscriptions(table *severity.Table, names []string) (map[string]bool, error) {
	events := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := table.Classify(name); err != nil {
			return nil, fmt.Errorf("invalid event subscription: %w", err)
		}
		events[name] = true
	}
	return events, nil
}

// Name returns the bar's name.
func (b *StatusBar) Name() string {
	return b.name
}

// Queue classifies ev and queues it. The returned message's completion
// settles when the message is dismissed, expires, or is withdrawn.
func (b *StatusBar) Queue(ctx context.Context, ev Event) (*message.Message, error) {
	sev, err := b.table.Classify(ev.Type)
	if err != nil {
		return nil, err
	}
	if ev.Timeout < 0 && ev.Timeout != NoTimeout {
		return nil, fmt.Errorf("negative timeout %s", ev.Timeout)
	}

	msg, err := message.New(ev.Type, sev, ev.Content, ev.Footer)
	if err != nil {
		return nil, err
	}
	msg.Timeout = ev.Timeout

	var queueErr error
	if err := b.loop.Do(ctx, func() { queueErr = b.queueMessage(msg) }); err != nil {
		return nil, err
	}
	if queueErr != nil {
		return nil, queueErr
	}
	return msg, nil
}

// Dismiss settles the displayed message with a snapshot of what is on
// screen and the interaction source. The snapshot is returned.
func (b *StatusBar) Dismiss(ctx context.Context, source string) (message.Result, error) {
	var (
		result message.Result
		opErr  error
	)
	err := b.loop.Do(ctx, func() {
		result, opErr = b.finishMessage(source)
	})
	if err != nil {
		return message.Result{}, err
	}
	return result, opErr
}

// SetEvents replaces the subscribed type names. Messages already queued
// are unaffected.
func (b *StatusBar) SetEvents(ctx context.Context, names []string) error {
	events, err := subscriptions(b.table, names)
	if err != nil {
		return err
	}
	return b.loop.Do(ctx, func() {
		b.events = events
		b.logger.Debug("subscriptions updated", "events", names)
	})
}

// SetReadyContent changes the content shown while idle.
func (b *StatusBar) SetReadyContent(ctx context.Context, content string) error {
	if content == "" {
		content = DefaultReadyContent
	}
	return b.loop.Do(ctx, func() {
		if b.readyContent == content {
			return
		}
		b.readyContent = content
		if !b.closed && b.level == severity.Idle && b.pending == nil && b.view.Idle() {
			b.publish(b.readyView())
		}
	})
}

// SetTimeouts replaces the default auto-dismiss timeout per severity. It
// applies to messages queued afterwards.
func (b *StatusBar) SetTimeouts(ctx context.Context, timeouts map[severity.Severity]time.Duration) error {
	next := make(map[severity.Severity]time.Duration, len(timeouts))
	for sev, d := range timeouts {
		if d < 0 {
			return fmt.Errorf("negative timeout for %s", sev)
		}
		next[sev] = d
	}
	return b.loop.Do(ctx, func() {
		b.timeouts = next
	})
}

// Snapshot returns the bar's current state.
func (b *StatusBar) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := b.loop.Do(ctx, func() {
		s = State{
			Level:  b.level,
			Active: b.active,
			Queued: b.queues.Counts(),
			View:   b.view,
			Closed: b.closed,
		}
	})
	return s, err
}

// Close tears the bar down: timers are cancelled, queues emptied, and every
// outstanding message settles with ReasonClosed.
func (b *StatusBar) Close(ctx context.Context) error {
	var drained []*message.Message
	err := b.loop.Do(ctx, func() {
		drained = b.teardown()
	})
	if err != nil {
		return err
	}

	now := b.loop.Now()
	for _, msg := range drained {
		msg.Completion().Settle(message.Result{
			Reason: message.ReasonClosed,
			Source: "shutdown",
			At:     now,
		})
	}
	return nil
}
