package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Sounder plays the sound of a severity.
type Sounder interface {
	PlayFor(sev severity.Severity) error
}

// Chime is a surface that plays a sound each time a bar starts showing a
// message. Republications of the same message stay silent.
type Chime struct {
	sounder Sounder
	logger  *slog.Logger

	mu   sync.Mutex
	last map[string]string // Bar name to the ID of the message last chimed
}

// NewChime creates a chime surface.
func NewChime(sounder Sounder, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chime{
		sounder: sounder,
		logger:  logger,
		last:    make(map[string]string),
	}
}

// Publish implements statusbar.Surface.
func (c *Chime) Publish(v statusbar.View) {
	if v.Idle() || !v.Visible {
		return
	}

	c.mu.Lock()
	if c.last[v.Bar] == v.MessageID {
		c.mu.Unlock()
		return
	}
	c.last[v.Bar] = v.MessageID
	c.mu.Unlock()

	if err := c.sounder.PlayFor(v.Level); err != nil {
		c.logger.Warn("failed to play chime", "bar", v.Bar, "severity", v.Level, "error", err)
	}
}
