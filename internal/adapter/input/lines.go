package input

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// LineSource reads one event per line. A line is either a JSON object:
//
//	{"type":"error","content":"disk full","footer":"df","timeout":"5s","bar":"main"}
//	{"action":"dismiss","bar":"main"}
//	{"action":"withdraw","id":"01J..."}
//
// or plain text, which is queued with the message type.
type LineSource struct {
	name   string
	reader io.Reader
	closer io.Closer
	logger *slog.Logger
}

// NewLineSourceWithReader creates a line source with a custom reader.
func NewLineSourceWithReader(name string, r io.Reader) *LineSource {
	return &LineSource{name: name, reader: r, logger: slog.Default()}
}

// SetLogger sets the logger used for rejected lines.
func (s *LineSource) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Name returns the source identifier.
func (s *LineSource) Name() string {
	return s.name
}

// Run reads lines until EOF. Malformed lines and events the handler
// rejects are logged and skipped.
func (s *LineSource) Run(ctx context.Context, h Handler) error {
	if s.closer != nil {
		defer func() { _ = s.closer.Close() }()
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.reader)
		const maxSize = 1024 * 1024 // 1MB per line
		scanner.Buffer(make([]byte, 64*1024), maxSize)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return &AdapterError{Source: s.name, Message: "failed to read input", Err: err}
				}
				return nil
			}
			lineNo++

			ev, skip, err := ParseLine(line)
			if err != nil {
				s.logger.Warn("skipping malformed input line", "source", s.name, "line", lineNo, "error", err)
				continue
			}
			if skip {
				continue
			}
			ev.Source = s.name
			if err := h.Handle(ctx, ev); err != nil {
				s.logger.Warn("event rejected", "source", s.name, "line", lineNo, "type", ev.Type, "error", err)
			}
		}
	}
}

// lineEntry is the JSON form of an input line.
type lineEntry struct {
	Action  Action   `json:"action,omitempty"`
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Footer  string   `json:"footer,omitempty"`
	Timeout duration `json:"timeout,omitempty"`
	Bar     string   `json:"bar,omitempty"`
	ID      string   `json:"id,omitempty"`
}

// ParseLine parses one input line. Blank lines and # comments are skipped.
func ParseLine(line []byte) (ev Event, skip bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == '#' {
		return Event{}, true, nil
	}

	if line[0] != '{' {
		return Event{
			Event:  statusbar.Event{Type: severity.TypeMessage, Content: string(line)},
			Action: ActionQueue,
		}, false, nil
	}

	var entry lineEntry
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entry); err != nil {
		return Event{}, false, fmt.Errorf("invalid JSON: %w", err)
	}

	ev = Event{
		Event: statusbar.Event{
			Type:    entry.Type,
			Content: entry.Content,
			Footer:  entry.Footer,
			Timeout: time.Duration(entry.Timeout),
		},
		Action: entry.Action,
		Bar:    entry.Bar,
		ID:     entry.ID,
	}
	if ev.Timeout < 0 {
		return Event{}, false, errors.New("timeout cannot be negative")
	}
	if ev.Action == "" {
		ev.Action = ActionQueue
	}

	switch ev.Action {
	case ActionQueue:
		if ev.Type == "" {
			return Event{}, false, errors.New("missing type")
		}
	case ActionDismiss:
	case ActionWithdraw:
		if ev.ID == "" {
			return Event{}, false, errors.New("withdraw needs an id")
		}
	default:
		return Event{}, false, fmt.Errorf("unknown action %q", ev.Action)
	}
	return ev, false, nil
}

// duration accepts a Go duration string ("5s") or a number of seconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		*d = duration(parsed)
		return nil
	}

	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %s", data)
	}
	nanos := secs * float64(time.Second)
	if math.IsNaN(nanos) || math.Abs(nanos) >= math.MaxInt64 {
		return fmt.Errorf("timeout %s out of range", data)
	}
	*d = duration(nanos)
	return nil
}
