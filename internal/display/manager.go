package display

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Manager forwards each published view to its sinks. It is safe for
// concurrent use.
type Manager struct {
	logger *slog.Logger

	mu    sync.RWMutex
	sinks []statusbar.Surface
}

// NewManager creates a manager that forwards views to sinks.
func NewManager(logger *slog.Logger, sinks ...statusbar.Surface) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger,
		sinks:  sinks,
	}
}

// AddSink registers another sink. It only receives views published after
// the call.
func (m *Manager) AddSink(s statusbar.Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Publish implements statusbar.Surface.
func (m *Manager) Publish(v statusbar.View) {
	m.mu.RLock()
	sinks := slices.Clone(m.sinks)
	m.mu.RUnlock()

	m.logger.Debug("view published",
		"bar", v.Bar,
		"level", v.Level,
		"message_id", v.MessageID,
		"visible", v.Visible,
	)

	for _, s := range sinks {
		s.Publish(v)
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
