package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

func TestVolumeToDecibels(t *testing.T) {
	tests := []struct {
		volume float64
		want   float64
	}{
		{1.0, 0},
		{0.5, -6.0206},
		{0.25, -12.0412},
		{0.1, -20},
		{0, -100},
		{-1, -100},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, volumeToDecibels(tt.volume), 0.001, "volume %v", tt.volume)
	}
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)

	p.SetVolume(1.5)
	assert.Equal(t, 1.0, p.Volume())

	p.SetVolume(-0.5)
	assert.Equal(t, 0.0, p.Volume())

	p.SetVolume(0.3)
	assert.Equal(t, 0.3, p.Volume())
}

func TestPlayer_Errors(t *testing.T) {
	p := NewPlayer(nil)
	dir := t.TempDir()

	assert.NoError(t, p.Play(""))
	assert.NoError(t, p.Preload(""))

	txt := filepath.Join(dir, "chime.txt")
	require.NoError(t, os.WriteFile(txt, []byte("not audio"), 0o644))
	err := p.Play(txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")

	err = p.Preload(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open sound file")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "sounds/a.wav"), expandPath("~/sounds/a.wav"))
	assert.Equal(t, "/tmp/a.wav", expandPath("/tmp/a.wav"))
}

func TestManager_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "error.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	m := NewManager(Settings{
		Enabled: false,
		Volume:  50,
		Sounds: map[severity.Severity]string{
			severity.Error:   existing,
			severity.Warning: filepath.Join(dir, "missing.wav"),
			severity.Info:    "",
		},
	}, nil)
	t.Cleanup(m.Close)

	assert.Equal(t, map[severity.Severity]string{severity.Error: existing}, m.sounds)
	assert.Equal(t, 0.5, m.player.Volume())

	// Disabled audio never touches the player.
	assert.NoError(t, m.PlayFor(severity.Error))

	m.Update(Settings{Enabled: true})
	assert.NoError(t, m.PlayFor(severity.Error), "no sound configured")
}

type fakeSounder struct {
	played []severity.Severity
	err    error
}

func (f *fakeSounder) PlayFor(sev severity.Severity) error {
	f.played = append(f.played, sev)
	return f.err
}

func TestChime_PlaysOncePerMessage(t *testing.T) {
	s := &fakeSounder{}
	c := NewChime(s, nil)

	views := []statusbar.View{
		{Bar: "main", Content: "ready", Visible: true},
		{Bar: "main", Level: severity.Error, MessageID: "1", Content: "E1", Visible: true},
		{Bar: "main", Level: severity.Error, MessageID: "1", Content: "E1", Visible: true},
		{Bar: "main", Level: severity.Error, MessageID: "1", Content: "E1", Visible: false},
		{Bar: "main", Level: severity.Warning, MessageID: "2", Content: "W1", Visible: false},
		{Bar: "main", Level: severity.Warning, MessageID: "2", Content: "W1", Visible: true},
		{Bar: "tray", Level: severity.Warning, MessageID: "2", Content: "W1", Visible: true},
	}
	for _, v := range views {
		c.Publish(v)
	}

	assert.Equal(t, []severity.Severity{severity.Error, severity.Warning, severity.Warning}, s.played)
}

func TestChime_ErrorIsNotFatal(t *testing.T) {
	c := NewChime(&fakeSounder{err: errors.New("no device")}, nil)
	assert.NotPanics(t, func() {
		c.Publish(statusbar.View{Bar: "main", Level: severity.Info, MessageID: "1", Visible: true})
	})
}
