package display

import (
	"io"
	"log/slog"
	"sync"

	"github.com/jmylchreest/statusbar/internal/adapter/output"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Writer is a surface that formats every view to an io.Writer.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format output.Formatter
	logger *slog.Logger

	// SkipHidden drops views published while a bar is between messages.
	SkipHidden bool
}

// NewWriter creates a writer surface.
func NewWriter(w io.Writer, format output.Formatter, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{w: w, format: format, logger: logger}
}

// Publish implements statusbar.Surface. Write errors are logged.
func (w *Writer) Publish(v statusbar.View) {
	if w.SkipHidden && !v.Visible {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.format.Format(w.w, v); err != nil {
		w.logger.Warn("failed to write view",
			"bar", v.Bar,
			"error", &DisplayError{Message: "write view", Cause: err},
		)
	}
}
