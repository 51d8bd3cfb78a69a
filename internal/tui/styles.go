package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/statusbar/internal/severity"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Padding(0, 1)

	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barNameStyle     = lipgloss.NewStyle().Bold(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	errorStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// levelColor returns the terminal color of a severity.
func levelColor(s severity.Severity) lipgloss.Color {
	switch s {
	case severity.Error:
		return lipgloss.Color("9")
	case severity.Warning:
		return lipgloss.Color("11")
	case severity.Info:
		return lipgloss.Color("12")
	default:
		return lipgloss.Color("7")
	}
}

func levelStyle(s severity.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(levelColor(s))
}

func badgeStyle(s severity.Severity) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(levelColor(s)).
		Padding(0, 1)
}
