// Package config handles configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/statusbar/internal/severity"
)

// DefaultBarName is the bar created when the file defines none.
const DefaultBarName = "main"

// D-Bus binding modes.
const (
	DBusModeMonitor = "monitor"
	DBusModeServer  = "server"
)

// Config represents the application configuration.
type Config struct {
	Log        LogConfig            `toml:"log" yaml:"log"`
	Vocabulary map[string]string    `toml:"vocabulary" yaml:"vocabulary"` // type name -> level name
	Timeouts   TimeoutConfig        `toml:"timeouts" yaml:"timeouts"`
	Bars       map[string]BarConfig `toml:"bars" yaml:"bars"`
	DBus       DBusConfig           `toml:"dbus" yaml:"dbus"`
	Audio      AudioConfig          `toml:"audio" yaml:"audio"`
	Output     OutputConfig         `toml:"output" yaml:"output"`
	Notices    NoticesConfig        `toml:"notices" yaml:"notices"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
}

// TimeoutConfig contains auto-dismiss timeouts per severity.
// A value of "0" or 0 keeps the message until it is dismissed.
type TimeoutConfig struct {
	Info    Duration `toml:"info" yaml:"info"`
	Warning Duration `toml:"warning" yaml:"warning"`
	Error   Duration `toml:"error" yaml:"error"`
}

// BarConfig configures one status bar.
type BarConfig struct {
	Events       string `toml:"events" yaml:"events"` // Comma-separated type names
	ReadyContent string `toml:"ready_content" yaml:"ready_content"`
}

// EventList returns the subscribed type names.
func (b BarConfig) EventList() []string {
	return severity.SplitEvents(b.Events)
}

// DBusConfig contains the notification bus binding settings.
type DBusConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Mode     string `toml:"mode" yaml:"mode"` // "monitor" or "server"
	Bar      string `toml:"bar" yaml:"bar"`   // Empty routes to the first subscribed bar
	Low      string `toml:"low" yaml:"low"`   // Type name per urgency; empty drops
	Normal   string `toml:"normal" yaml:"normal"`
	Critical string `toml:"critical" yaml:"critical"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled" yaml:"enabled"`
	Volume  int         `toml:"volume" yaml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds" yaml:"sounds"`
}

// SoundConfig contains per-severity sound file paths.
type SoundConfig struct {
	Info    string `toml:"info" yaml:"info"`
	Warning string `toml:"warning" yaml:"warning"`
	Error   string `toml:"error" yaml:"error"`
}

// OutputConfig contains the line output settings used by `run`.
type OutputConfig struct {
	Format   string `toml:"format" yaml:"format"`     // line, plain, json
	Template string `toml:"template" yaml:"template"` // Go template, overrides format
	ShowTime bool   `toml:"show_time" yaml:"show_time"`
}

// NoticesConfig controls the notices statusbar queues about itself, such
// as config reloads and audio failures.
type NoticesConfig struct {
	Enabled     bool     `toml:"enabled" yaml:"enabled"`
	MinInterval Duration `toml:"min_interval" yaml:"min_interval"` // Per notice kind
	Bar         string   `toml:"bar" yaml:"bar"`                   // Empty routes to the first subscribed bar
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Vocabulary: map[string]string{},
		Timeouts: TimeoutConfig{
			Info:    Duration(10 * time.Second),
			Warning: Duration(0),
			Error:   Duration(0),
		},
		Bars: defaultBars(),
		DBus: DBusConfig{
			Enabled:  false,
			Mode:     DBusModeMonitor,
			Low:      severity.TypeMessage,
			Normal:   severity.TypeMessage,
			Critical: severity.TypeError,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
		Output: OutputConfig{
			Format: "line",
		},
		Notices: NoticesConfig{
			Enabled:     true,
			MinInterval: Duration(5 * time.Second),
		},
	}
}

func defaultBars() map[string]BarConfig {
	return map[string]BarConfig{
		DefaultBarName: {
			Events:       strings.Join([]string{severity.TypeMessage, severity.TypeWarn, severity.TypeError, severity.TypeStatusMessage}, ","),
			ReadyContent: "ready",
		},
	}
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "statusbar", "config.toml")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML on top of the defaults and validates the result.
// A file that defines any bar replaces the default bar set.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Bars = nil

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(cfg.Bars) == 0 {
		cfg.Bars = defaultBars()
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	table, err := c.Table()
	if err != nil {
		return err
	}

	for name, d := range map[string]Duration{
		"info":    c.Timeouts.Info,
		"warning": c.Timeouts.Warning,
		"error":   c.Timeouts.Error,
	} {
		if d < 0 {
			return fmt.Errorf("timeouts.%s must not be negative, got %s", name, d.Duration())
		}
	}

	if len(c.Bars) == 0 {
		return errors.New("at least one bar must be configured")
	}
	for name, bar := range c.Bars {
		if strings.TrimSpace(name) == "" {
			return errors.New("bar name cannot be empty")
		}
		for _, ev := range bar.EventList() {
			if _, err := table.Classify(ev); err != nil {
				return fmt.Errorf("bars.%s.events: %w", name, err)
			}
		}
	}

	switch c.DBus.Mode {
	case DBusModeMonitor, DBusModeServer:
	default:
		return fmt.Errorf("invalid dbus mode %q, must be %q or %q", c.DBus.Mode, DBusModeMonitor, DBusModeServer)
	}
	if c.DBus.Bar != "" {
		if _, ok := c.Bars[c.DBus.Bar]; !ok {
			return fmt.Errorf("dbus.bar %q is not a configured bar", c.DBus.Bar)
		}
	}
	for _, typeName := range []string{c.DBus.Low, c.DBus.Normal, c.DBus.Critical} {
		if typeName == "" {
			continue
		}
		if _, err := table.Classify(typeName); err != nil {
			return fmt.Errorf("dbus: %w", err)
		}
	}

	if c.Notices.MinInterval < 0 {
		return fmt.Errorf("notices.min_interval must not be negative, got %s", c.Notices.MinInterval.Duration())
	}
	if c.Notices.Bar != "" {
		if _, ok := c.Bars[c.Notices.Bar]; !ok {
			return fmt.Errorf("notices.bar %q is not a configured bar", c.Notices.Bar)
		}
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// Table builds the type vocabulary: the built-in names extended by the
// [vocabulary] section.
func (c *Config) Table() (*severity.Table, error) {
	extra := make(map[string]severity.Severity, len(c.Vocabulary))
	for name, level := range c.Vocabulary {
		sev, err := severity.ParseSeverity(level)
		if err != nil {
			return nil, fmt.Errorf("vocabulary.%s: %w", name, err)
		}
		extra[name] = sev
	}
	return severity.NewTable(extra)
}

// BarNames returns the configured bar names in sorted order.
func (c *Config) BarNames() []string {
	names := make([]string, 0, len(c.Bars))
	for name := range c.Bars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TimeoutMap returns the auto-dismiss timeout per severity.
func (c *Config) TimeoutMap() map[severity.Severity]time.Duration {
	return map[severity.Severity]time.Duration{
		severity.Info:    c.Timeouts.Info.Duration(),
		severity.Warning: c.Timeouts.Warning.Duration(),
		severity.Error:   c.Timeouts.Error.Duration(),
	}
}

// SoundMap returns the configured sound file per severity, with ~ expanded.
// Severities without a sound are omitted.
func (c *Config) SoundMap() map[severity.Severity]string {
	sounds := make(map[severity.Severity]string, 3)
	for sev, path := range map[severity.Severity]string{
		severity.Info:    c.Audio.Sounds.Info,
		severity.Warning: c.Audio.Sounds.Warning,
		severity.Error:   c.Audio.Sounds.Error,
	} {
		if path != "" {
			sounds[sev] = expandPath(path)
		}
	}
	return sounds
}

// ParseLogLevel converts a level name into a slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", name)
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
