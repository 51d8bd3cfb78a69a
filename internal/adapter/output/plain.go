package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// PlainFormatter formats views as readable multi-line text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	tmpl, err := parseTemplate("plain", opts.Template)
	if err != nil {
		return nil, err
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// Format writes the view as plain text.
func (f *PlainFormatter) Format(w io.Writer, v statusbar.View) error {
	if f.template != nil {
		if err := f.template.Execute(w, newTemplateData(v, f.opts.Now())); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowBar && v.Bar != "" {
		fmt.Fprintf(&sb, "[%s] ", v.Bar)
	}

	switch {
	case !v.Visible:
		sb.WriteString("(hidden)")
	case v.Idle():
		sb.WriteString(sanitize(v.Content, f.opts.ContentMaxLen))
	default:
		fmt.Fprintf(&sb, "<%s> %s", levelName(v.Level), sanitize(v.Content, f.opts.ContentMaxLen))
		if f.opts.ShowTime {
			if rt := relativeTime(v.ShownAt, f.opts.Now()); rt != "" {
				fmt.Fprintf(&sb, " (%s)", rt)
			}
		}
	}
	sb.WriteString("\n")

	if v.Visible && v.Footer != "" {
		sb.WriteString("    " + v.Footer + "\n")
	}
	if f.opts.ShowCounts {
		if c := countsSummary(v); c != "" {
			sb.WriteString("    " + c + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
