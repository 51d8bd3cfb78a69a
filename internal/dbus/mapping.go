package dbus

import (
	"strings"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Mapping selects the event type queued for each urgency. An empty type
// drops notifications of that urgency.
type Mapping struct {
	Low      string
	Normal   string
	Critical string
	Bar      string // Target bar; empty lets the router pick one
}

// DefaultMapping queues low and normal notifications as messages and
// critical ones as errors.
func DefaultMapping() Mapping {
	return Mapping{
		Low:      severity.TypeMessage,
		Normal:   severity.TypeMessage,
		Critical: severity.TypeError,
	}
}

// TypeFor returns the event type for an urgency.
func (m Mapping) TypeFor(urgency byte) string {
	switch urgency {
	case UrgencyLow:
		return m.Low
	case UrgencyCritical:
		return m.Critical
	default:
		return m.Normal
	}
}

// Event converts a notification into a queue event. It reports false when
// the notification's urgency is not mapped.
func (m Mapping) Event(n *Notification, source string) (input.Event, bool) {
	typeName := m.TypeFor(n.Urgency())
	if typeName == "" {
		return input.Event{}, false
	}
	return input.Event{
		Event: statusbar.Event{
			Type:    typeName,
			Content: content(n),
			Footer:  footer(n),
			Timeout: n.Timeout(),
		},
		Action: input.ActionQueue,
		Bar:    m.Bar,
		Source: source,
	}, true
}

// footer names the sending application, falling back to the category hint.
func footer(n *Notification) string {
	if app := strings.TrimSpace(n.AppName); app != "" {
		return app
	}
	return n.Category()
}

// content joins summary and body as "summary: body".
func content(n *Notification) string {
	summary := strings.TrimSpace(n.Summary)
	body := strings.TrimSpace(n.Body)
	switch {
	case body == "":
		return summary
	case summary == "":
		return body
	default:
		return summary + ": " + body
	}
}
