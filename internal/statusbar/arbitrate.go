package statusbar

import (
	"fmt"

	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/severity"
)

// The methods in this file run on the bar's event loop only.

// queueMessage admits msg and preempts the next-to-show choice when msg
// outranks the current level.
func (b *StatusBar) queueMessage(msg *message.Message) error {
	if b.closed {
		return ErrClosed
	}
	if !b.events[msg.Type] {
		return fmt.Errorf("%w: %q", ErrNotSubscribed, msg.Type)
	}
	switch msg.Timeout {
	case NoTimeout:
		msg.Timeout = 0
	case 0:
		msg.Timeout = b.timeouts[msg.Severity]
	}
	if err := b.queues.Enqueue(msg); err != nil {
		return err
	}

	msg.Completion().OnSettled(func(message.Result) {
		b.loop.Schedule(0, func() { b.handleCompletion(msg) })
	})

	b.logger.Debug("queued message",
		"id", msg.ID,
		"type", msg.Type,
		"severity", msg.Severity,
		"current_level", b.level,
	)

	if msg.Severity > b.level {
		b.arbitrate(b.level != severity.Idle, msg.Severity)
	}
	b.refreshCounts()
	return nil
}

// arbitrate picks the next message to show. With explicit set to Idle the
// queues are rescanned. With delay the bar is hidden and the choice shown
// after FollowUpDelay; otherwise it is shown on the next tick.
func (b *StatusBar) arbitrate(delay bool, explicit severity.Severity) {
	target := explicit
	if target == severity.Idle {
		target = b.queues.HighestNonEmpty()
	}
	if target == severity.Idle || b.queues.IsEmpty(target) {
		b.goIdle(delay)
		return
	}

	b.level = target

	// The displayed message is never evicted; the new level is picked up
	// when it completes.
	if b.active != nil {
		b.logger.Debug("deferring preemption until active message completes",
			"active", b.active.ID,
			"level", target,
		)
		return
	}

	next := b.queues.PeekHead(target)
	b.cancelPending()
	if delay {
		b.hide()
		b.pauseUntil = b.loop.Now().Add(FollowUpDelay)
	}
	// A message arriving during a follow-up pause waits out the rest of it.
	wait := max(b.pauseUntil.Sub(b.loop.Now()), 0)
	b.pending = b.loop.Schedule(wait, func() { b.showMessage(next) })
}

// goIdle returns the bar to its ready content.
func (b *StatusBar) goIdle(delay bool) {
	b.level = severity.Idle
	b.active = nil

	if b.pending != nil && b.pendingReady {
		return
	}
	ready := b.readyView()
	if b.pending == nil && b.view.sameContent(ready) {
		return
	}

	b.cancelPending()
	if !delay {
		b.publish(ready)
		return
	}
	b.hide()
	b.pendingReady = true
	b.pauseUntil = b.loop.Now().Add(FollowUpDelay)
	b.pending = b.loop.Schedule(FollowUpDelay, func() {
		b.pending = nil
		b.pendingReady = false
		if b.closed {
			return
		}
		b.publish(b.readyView())
	})
}

// showMessage displays msg unless it completed while its display was
// pending; the completion handler then re-arbitrates on its own.
func (b *StatusBar) showMessage(msg *message.Message) {
	b.pending = nil
	if b.closed || msg.Settled() || !b.queues.Contains(msg) {
		return
	}

	b.active = msg
	msg.MarkActive()
	b.publish(View{
		Bar:       b.name,
		Level:     msg.Severity,
		MessageID: msg.ID,
		Type:      msg.Type,
		Content:   msg.Content,
		Footer:    footerFor(msg.Footer, msg.Timeout),
		Visible:   true,
		ShownAt:   b.loop.Now(),
	})

	if msg.Timeout > 0 {
		b.expiry = b.loop.Schedule(msg.Timeout, func() { b.expire(msg) })
	}

	b.logger.Debug("showing message", "id", msg.ID, "severity", msg.Severity, "timeout", msg.Timeout)
}

// expire settles the active message when its timeout fires.
func (b *StatusBar) expire(msg *message.Message) {
	b.expiry = nil
	if b.closed || b.active != msg {
		return
	}
	msg.Completion().Settle(message.Result{
		Reason:  message.ReasonExpired,
		Content: b.view.Content,
		Footer:  b.view.Footer,
		Source:  "timeout",
		At:      b.loop.Now(),
	})
}

// finishMessage settles the active message with a snapshot of the display.
func (b *StatusBar) finishMessage(source string) (message.Result, error) {
	if b.closed {
		return message.Result{}, ErrClosed
	}
	if b.active == nil {
		return message.Result{}, ErrNoActiveMessage
	}

	result := message.Result{
		Reason:  message.ReasonDismissed,
		Content: b.view.Content,
		Footer:  b.view.Footer,
		Source:  source,
		At:      b.loop.Now(),
	}
	if !b.active.Completion().Settle(result) {
		return message.Result{}, ErrNoActiveMessage
	}
	b.logger.Debug("message dismissed", "id", b.active.ID, "source", source)
	return result, nil
}

// handleCompletion removes a settled message and re-arbitrates.
func (b *StatusBar) handleCompletion(msg *message.Message) {
	if b.closed {
		return
	}
	if !b.queues.Remove(msg) {
		return
	}
	if b.active == msg {
		b.active = nil
		if b.expiry != nil {
			b.expiry.Stop()
			b.expiry = nil
		}
	}

	b.logger.Debug("message completed", "id", msg.ID, "status", msg.Status())

	b.arbitrate(true, severity.Idle)
	b.refreshCounts()
}

// teardown resets the bar and returns the messages that were still queued.
func (b *StatusBar) teardown() []*message.Message {
	if b.closed {
		return nil
	}
	b.closed = true
	b.cancelPending()
	if b.expiry != nil {
		b.expiry.Stop()
		b.expiry = nil
	}
	b.level = severity.Idle
	b.active = nil
	drained := b.queues.Drain()

	b.logger.Debug("status bar closed", "outstanding", len(drained))
	return drained
}

// cancelPending stops a scheduled show or ready transition.
func (b *StatusBar) cancelPending() {
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	b.pendingReady = false
}

// readyView is the view shown while idle.
func (b *StatusBar) readyView() View {
	return View{
		Bar:     b.name,
		Level:   severity.Idle,
		Content: b.readyContent,
		Visible: true,
	}
}

// hide publishes the current view with visibility off.
func (b *StatusBar) hide() {
	if !b.view.Visible {
		return
	}
	v := b.view
	v.Visible = false
	b.publish(v)
}

// refreshCounts republishes the current view if queue counts changed.
func (b *StatusBar) refreshCounts() {
	if b.closed || !b.published || b.view.Queued == b.queues.Counts() {
		return
	}
	b.publish(b.view)
}

// publish stamps the queue counts on v and hands it to the surface.
func (b *StatusBar) publish(v View) {
	v.Queued = b.queues.Counts()
	b.view = v
	b.published = true
	b.surface.Publish(v)
}
