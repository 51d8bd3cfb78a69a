package dbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

const (
	// Interface is the notification interface name.
	Interface = "org.freedesktop.Notifications"
	// Path is the notification object path.
	Path = "/org/freedesktop/Notifications"
	// BusName is the bus name claimed in server mode.
	BusName = "org.freedesktop.Notifications"
)

// Urgency levels carried in the "urgency" hint.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CloseReasonFor maps how a message completed onto the signal reason.
func CloseReasonFor(r message.Reason) CloseReason {
	switch r {
	case message.ReasonExpired:
		return CloseReasonExpired
	case message.ReasonDismissed:
		return CloseReasonDismissed
	case message.ReasonClosed:
		return CloseReasonClosed
	default:
		return CloseReasonUndefined
	}
}

// Notification holds the arguments of an org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// ErrMalformedNotify is returned for a Notify call with unexpected arguments.
var ErrMalformedNotify = errors.New("malformed Notify call")

// ParseNotify decodes the body of a Notify method call:
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func ParseNotify(body []any) (*Notification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("%w: %d arguments", ErrMalformedNotify, len(body))
	}

	n := &Notification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, fmt.Errorf("%w: invalid app_name type", ErrMalformedNotify)
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, fmt.Errorf("%w: invalid replaces_id type", ErrMalformedNotify)
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, fmt.Errorf("%w: invalid app_icon type", ErrMalformedNotify)
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, fmt.Errorf("%w: invalid summary type", ErrMalformedNotify)
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, fmt.Errorf("%w: invalid body type", ErrMalformedNotify)
	}
	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}
	return n, nil
}

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (n *Notification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Transient returns true if the transient hint is set.
func (n *Notification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Timeout returns the requested expiry as an event timeout: -1 leaves it to
// the bar's default and 0 never expires. Transient notifications never stay
// up indefinitely, so their 0 also falls back to the default.
func (n *Notification) Timeout() time.Duration {
	switch {
	case n.ExpireTimeout < 0:
		return 0
	case n.ExpireTimeout == 0:
		if n.Transient() {
			return 0
		}
		return statusbar.NoTimeout
	default:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	}
}

// ServerCapabilities lists the capabilities advertised in server mode.
var ServerCapabilities = []string{
	"body", // Body text is shown after the summary
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "statusbar",
		Vendor:      "statusbar",
		Version:     "0.0.1",
		SpecVersion: "1.2",
	}
}
