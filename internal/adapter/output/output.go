// Package output formats status bar views for text consumers: terminal
// logs, bar modules that read one line per update, and JSON consumers.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter formats a view for output.
type Formatter interface {
	// Format writes one formatted view to the writer.
	Format(w io.Writer, v statusbar.View) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatLine  FormatType = "line"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (FormatType, error) {
	switch f := FormatType(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatLine, FormatJSON, FormatPlain:
		return f, nil
	case "":
		return FormatLine, nil
	default:
		return "", fmt.Errorf("%w: %q (expected line, json or plain)", ErrUnknownFormat, name)
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatPlain:
		return NewPlainFormatter(opts)
	case FormatLine, "":
		return NewLineFormatter(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template      string // Custom template for line/plain format
	ShowBar       bool   // Prefix the bar name
	ShowTime      bool   // Show how long the message has been displayed
	ShowCounts    bool   // Show queued message counts
	ContentMaxLen int    // Maximum content length (0 = unlimited)
	Separator     string // Field separator for line format
	Now           func() time.Time
}

// DefaultFormatterOptions returns sensible defaults for line output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowBar:       false,
		ShowTime:      false,
		ShowCounts:    true,
		ContentMaxLen: 120,
		Separator:     " | ",
		Now:           time.Now,
	}
}

// templateData provides data for custom templates.
type templateData struct {
	View         statusbar.View
	Level        string
	RelativeTime string
}

func newTemplateData(v statusbar.View, now time.Time) templateData {
	return templateData{
		View:         v,
		Level:        levelName(v.Level),
		RelativeTime: relativeTime(v.ShownAt, now),
	}
}

// parseTemplate parses a custom template, or returns nil when none is set.
func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s template: %w", name, err)
	}
	return tmpl, nil
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"levelIcon": func(s severity.Severity) string {
			switch s {
			case severity.Info:
				return "i"
			case severity.Warning:
				return "!"
			case severity.Error:
				return "E"
			default:
				return "-"
			}
		},
		"total": func(v statusbar.View) int {
			return v.Queued.Total()
		},
	}
}

// levelName is the CSS-friendly name of a view's level.
func levelName(s severity.Severity) string {
	return s.String()
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// countsSummary renders queued counts, or "" when nothing is queued.
func countsSummary(v statusbar.View) string {
	q := v.Queued
	if q.Total() == 0 {
		return ""
	}
	parts := make([]string, 0, len(severity.Levels))
	for _, level := range severity.Levels {
		parts = append(parts, fmt.Sprintf("%c:%d", level.String()[0], q.Of(level)))
	}
	return "queued " + strings.Join(parts, " ")
}

// sanitize cleans up text for single-line display.
func sanitize(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, maxLen)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
