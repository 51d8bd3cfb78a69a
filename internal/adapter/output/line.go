package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// LineFormatter writes one line per view, suitable for bar modules that
// replace their text on every line read. A hidden view is an empty line.
type LineFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewLineFormatter creates a new line formatter.
func NewLineFormatter(opts FormatterOptions) (*LineFormatter, error) {
	tmpl, err := parseTemplate("line", opts.Template)
	if err != nil {
		return nil, err
	}
	return &LineFormatter{opts: opts, template: tmpl}, nil
}

// Format writes the view as a single line.
func (f *LineFormatter) Format(w io.Writer, v statusbar.View) error {
	_, err := fmt.Fprintln(w, f.formatLine(v))
	return err
}

// formatLine formats a single view line.
func (f *LineFormatter) formatLine(v statusbar.View) string {
	if !v.Visible {
		return ""
	}

	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(v, f.opts.Now())); err == nil {
			return sanitize(buf.String(), 0)
		}
	}

	// Default format: [bar] [level] content [footer] [counts] [time]
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowBar && v.Bar != "" {
		parts = append(parts, v.Bar)
	}
	if !v.Idle() {
		parts = append(parts, strings.ToUpper(levelName(v.Level)))
	}

	parts = append(parts, sanitize(v.Content, f.opts.ContentMaxLen))

	if v.Footer != "" {
		parts = append(parts, sanitize(v.Footer, 0))
	}
	if f.opts.ShowCounts {
		if c := countsSummary(v); c != "" {
			parts = append(parts, c)
		}
	}
	if f.opts.ShowTime && !v.Idle() {
		if rt := relativeTime(v.ShownAt, f.opts.Now()); rt != "" {
			parts = append(parts, rt)
		}
	}

	return strings.Join(parts, sep)
}
