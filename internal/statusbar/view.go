package statusbar

import (
	"strings"
	"time"

	"github.com/jmylchreest/statusbar/internal/queue"
	"github.com/jmylchreest/statusbar/internal/severity"
)

// DefaultDismissControl is appended to footers that offer no way to close
// a message that will not expire on its own.
const DefaultDismissControl = "[x]"

// View is what a bar publishes to its presentation surface.
type View struct {
	Bar       string
	Level     severity.Severity // Idle while the ready content is shown
	MessageID string            // Empty while idle
	Type      string
	Content   string
	Footer    string // Empty means no footer
	Visible   bool
	ShownAt   time.Time
	Queued    queue.Counts
}

// Idle reports whether the view shows the ready content.
func (v View) Idle() bool {
	return v.MessageID == ""
}

// sameContent reports whether two views show the same thing, ignoring
// queue counts and timestamps.
func (v View) sameContent(o View) bool {
	return v.Level == o.Level &&
		v.MessageID == o.MessageID &&
		v.Content == o.Content &&
		v.Footer == o.Footer &&
		v.Visible == o.Visible
}

// Surface receives every view a bar publishes. Publish is called from the
// bar's event loop and must not call back into the bar synchronously.
type Surface interface {
	Publish(View)
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(View)

// Publish implements Surface.
func (f SurfaceFunc) Publish(v View) {
	f(v)
}

// hasDismissControl reports whether footer markup already carries a control
// that closes the message.
func hasDismissControl(footer string) bool {
	return strings.Contains(footer, "</button>") ||
		strings.Contains(footer, "</i-button>") ||
		strings.Contains(footer, DefaultDismissControl)
}

// footerFor returns the footer to display for a message. A footer without a
// dismiss control gets the default one unless the message expires by itself.
func footerFor(footer string, timeout time.Duration) string {
	if footer == "" || timeout > 0 || hasDismissControl(footer) {
		return footer
	}
	return footer + " " + DefaultDismissControl
}
