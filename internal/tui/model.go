// Package tui provides the BubbleTea-based terminal surface for status bars.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeBars Mode = iota
	ModeDetail
)

// DismissSource is the interaction source recorded for dismissals made here.
const DismissSource = "tui"

// DismissFunc dismisses the message displayed on the named bar.
type DismissFunc func(ctx context.Context, bar string) error

// Options configures the model.
type Options struct {
	Bars    []string // Initial bar order
	Dismiss DismissFunc
	Now     func() time.Time
}

// Model is the main TUI model.
type Model struct {
	mode     Mode
	viewport viewport.Model
	help     help.Model
	keys     KeyMap

	bars    []string
	views   map[string]statusbar.View
	focus   int
	dismiss DismissFunc
	now     func() time.Time

	width  int
	height int
	ready  bool

	statusMsg string
	statusErr bool
}

// ViewMsg carries a view published by a bar.
type ViewMsg struct {
	View statusbar.View
}

type tickMsg time.Time

type dismissResultMsg struct {
	bar string
	err error
}

type clearStatusMsg struct{}

// New creates a new TUI model.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		mode:    ModeBars,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		bars:    append([]string(nil), opts.Bars...),
		views:   make(map[string]statusbar.View),
		dismiss: opts.Dismiss,
		now:     opts.Now,
	}
}

// Focused returns the name of the focused bar, or "" when there are none.
func (m Model) Focused() string {
	if len(m.bars) == 0 {
		return ""
	}
	return m.bars[m.focus]
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-2, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-2, 1)
		}
		return m, nil

	case ViewMsg:
		v := msg.View
		if !slices.Contains(m.bars, v.Bar) {
			m.bars = append(m.bars, v.Bar)
		}
		m.views[v.Bar] = v
		if m.mode == ModeDetail && v.Bar == m.Focused() {
			m.viewport.SetContent(renderDetail(v))
		}
		return m, nil

	case tickMsg:
		return m, tick()

	case dismissResultMsg:
		switch {
		case errors.Is(msg.err, statusbar.ErrNoActiveMessage):
			m.statusMsg, m.statusErr = fmt.Sprintf("%s: nothing to dismiss", msg.bar), false
		case msg.err != nil:
			m.statusMsg, m.statusErr = fmt.Sprintf("%s: %v", msg.bar, msg.err), true
		default:
			m.statusMsg, m.statusErr = fmt.Sprintf("%s: dismissed", msg.bar), false
		}
		return m, clearStatusAfter(3 * time.Second)

	case clearStatusMsg:
		m.statusMsg, m.statusErr = "", false
		return m, nil
	}

	if m.mode == ModeDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.mode == ModeDetail {
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Detail):
			m.mode = ModeBars
			return m, nil
		case key.Matches(msg, m.keys.Dismiss):
			return m, m.dismissFocused()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.focus > 0 {
			m.focus--
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus < len(m.bars)-1 {
			m.focus++
		}
	case key.Matches(msg, m.keys.Next):
		if len(m.bars) > 0 {
			m.focus = (m.focus + 1) % len(m.bars)
		}
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismissFocused()
	case key.Matches(msg, m.keys.Detail):
		if v, ok := m.views[m.Focused()]; ok {
			m.mode = ModeDetail
			m.viewport.SetContent(renderDetail(v))
			m.viewport.GotoTop()
		}
	}
	return m, nil
}

// dismissFocused returns a command dismissing the focused bar's message.
func (m Model) dismissFocused() tea.Cmd {
	bar := m.Focused()
	if bar == "" || m.dismiss == nil {
		return nil
	}
	if v, ok := m.views[bar]; ok && v.Idle() {
		return func() tea.Msg {
			return dismissResultMsg{bar: bar, err: statusbar.ErrNoActiveMessage}
		}
	}
	dismiss := m.dismiss
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return dismissResultMsg{bar: bar, err: dismiss(ctx, bar)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	switch m.mode {
	case ModeDetail:
		return m.viewDetail()
	default:
		return m.viewBars()
	}
}

func (m Model) viewBars() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Status bars"))
	b.WriteString("\n\n")

	if len(m.bars) == 0 {
		b.WriteString(dimStyle.Render("  no bars registered"))
		b.WriteString("\n")
	}

	nameWidth := 0
	for _, name := range m.bars {
		nameWidth = max(nameWidth, lipgloss.Width(name))
	}

	now := m.now()
	for i, name := range m.bars {
		cursor := "  "
		if i == m.focus {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor)
		b.WriteString(barNameStyle.Width(nameWidth).Render(name))
		b.WriteString("  ")

		v, ok := m.views[name]
		if !ok {
			b.WriteString(dimStyle.Render("waiting"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.renderRow(v, now))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStatusStyle
		}
		b.WriteString(style.Render(m.statusMsg))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(v statusbar.View, now time.Time) string {
	if !v.Visible {
		return dimStyle.Render("(hidden)")
	}
	if v.Idle() {
		return levelStyle(v.Level).Render(v.Content)
	}

	parts := []string{
		badgeStyle(v.Level).Render(strings.ToUpper(v.Level.String())),
		levelStyle(v.Level).Render(v.Content),
	}
	if v.Footer != "" {
		parts = append(parts, dimStyle.Render(v.Footer))
	}
	if total := v.Queued.Total(); total > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("+%d queued", total)))
	}
	if !v.ShownAt.IsZero() {
		parts = append(parts, dimStyle.Render(humanize.RelTime(v.ShownAt, now, "ago", "from now")))
	}
	return strings.Join(parts, " ")
}

func (m Model) viewDetail() string {
	header := titleStyle.Render(fmt.Sprintf("Bar %s", m.Focused()))
	return header + "\n" + m.viewport.View() + "\n" + m.help.View(m.keys)
}

// detail is the YAML shape of a view in the detail pane.
type detail struct {
	Bar     string         `yaml:"bar"`
	Level   string         `yaml:"level"`
	ID      string         `yaml:"id,omitempty"`
	Type    string         `yaml:"type,omitempty"`
	Content string         `yaml:"content"`
	Footer  string         `yaml:"footer,omitempty"`
	Visible bool           `yaml:"visible"`
	ShownAt string         `yaml:"shown_at,omitempty"`
	Queued  map[string]int `yaml:"queued"`
}

// renderDetail renders a view as YAML.
func renderDetail(v statusbar.View) string {
	d := detail{
		Bar:     v.Bar,
		Level:   v.Level.String(),
		ID:      v.MessageID,
		Type:    v.Type,
		Content: v.Content,
		Footer:  v.Footer,
		Visible: v.Visible,
		Queued: map[string]int{
			"info":    v.Queued.Info,
			"warning": v.Queued.Warning,
			"error":   v.Queued.Error,
		},
	}
	if !v.ShownAt.IsZero() {
		d.ShownAt = v.ShownAt.Format(time.RFC3339)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Sprintf("failed to render view: %v", err)
	}
	return string(data)
}
