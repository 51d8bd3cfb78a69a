package output

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Record is the JSON shape of a view. The text, alt, tooltip and class
// fields follow the custom module protocol of common Wayland bars.
type Record struct {
	Text    string       `json:"text"`
	Alt     string       `json:"alt"`
	Tooltip string       `json:"tooltip,omitempty"`
	Class   []string     `json:"class"`
	Bar     string       `json:"bar"`
	ID      string       `json:"id,omitempty"`
	Type    string       `json:"type,omitempty"`
	Queued  QueuedCounts `json:"queued"`
}

// QueuedCounts is the JSON shape of queued message counts.
type QueuedCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// JSONFormatter formats views as one JSON object per line.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the view as a JSON object.
func (f *JSONFormatter) Format(w io.Writer, v statusbar.View) error {
	return json.NewEncoder(w).Encode(f.record(v))
}

func (f *JSONFormatter) record(v statusbar.View) Record {
	level := levelName(v.Level)
	r := Record{
		Alt:   level,
		Class: []string{level},
		Bar:   v.Bar,
		ID:    v.MessageID,
		Type:  v.Type,
		Queued: QueuedCounts{
			Info:    v.Queued.Info,
			Warning: v.Queued.Warning,
			Error:   v.Queued.Error,
		},
	}
	if !v.Visible {
		r.Class = append(r.Class, "hidden")
		return r
	}

	r.Text = sanitize(v.Content, f.opts.ContentMaxLen)

	var tooltip []string
	if v.Footer != "" {
		tooltip = append(tooltip, v.Footer)
	}
	if c := countsSummary(v); c != "" {
		tooltip = append(tooltip, c)
	}
	r.Tooltip = strings.Join(tooltip, "\n")
	return r
}
