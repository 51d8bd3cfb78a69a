package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/statusbar/internal/severity"
)

// Settings selects the chime for each severity.
type Settings struct {
	Enabled bool
	Volume  int // 0 to 100
	Sounds  map[severity.Severity]string
}

// Manager plays the sound configured for a severity.
type Manager struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	player   *Player
	settings Settings
	sounds   map[severity.Severity]string // Only files that exist
}

// NewManager creates a new audio manager.
func NewManager(settings Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger: logger,
		player: NewPlayer(logger),
	}
	m.Update(settings)
	return m
}

// Update applies new settings, e.g. after a config reload. Cached sounds
// are dropped so edited files are decoded again.
func (m *Manager) Update(settings Settings) {
	sounds := make(map[severity.Severity]string, len(settings.Sounds))
	for sev, path := range settings.Sounds {
		if path == "" {
			continue
		}
		expanded := expandPath(path)
		if _, err := os.Stat(expanded); err != nil {
			m.logger.Warn("sound file not found", "severity", sev, "path", expanded)
			continue
		}
		sounds[sev] = expanded
		m.player.Invalidate(expanded)
	}

	if settings.Volume > 0 {
		m.player.SetVolume(float64(settings.Volume) / 100.0)
	}

	m.mu.Lock()
	m.settings = settings
	m.sounds = sounds
	m.mu.Unlock()

	if settings.Enabled {
		for sev, path := range sounds {
			if err := m.player.Preload(path); err != nil {
				m.logger.Warn("failed to preload sound", "severity", sev, "path", path, "error", err)
			}
		}
	}
	m.logger.Debug("audio settings applied", "enabled", settings.Enabled, "sounds", len(sounds))
}

// PlayFor plays the sound configured for sev. It does nothing when audio is
// disabled or no sound is configured.
func (m *Manager) PlayFor(sev severity.Severity) error {
	m.mu.RLock()
	enabled := m.settings.Enabled
	path, ok := m.sounds[sev]
	m.mu.RUnlock()

	if !enabled || !ok {
		return nil
	}
	return m.player.Play(path)
}

// Close stops playback.
func (m *Manager) Close() {
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}
