// Package severity defines the message severity levels and the vocabulary
// that maps notification type names onto them.
package severity

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Severity is the rank of a message. Higher values win arbitration.
type Severity int

const (
	// Idle is the non-level used when nothing is shown or queued.
	Idle Severity = iota
	// Info is for informational messages.
	Info
	// Warning is for warnings.
	Warning
	// Error is for errors.
	Error
)

// Levels lists the queueable severities in arbitration scan order.
var Levels = []Severity{Error, Warning, Info}

// String returns the level name used in configuration and logs.
func (s Severity) String() string {
	switch s {
	case Idle:
		return "idle"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// QueueKey returns the name of the queue holding messages of this severity.
// Idle and unknown severities have no queue.
func (s Severity) QueueKey() string {
	switch s {
	case Info:
		return "messages"
	case Warning:
		return "warnings"
	case Error:
		return "errors"
	default:
		return ""
	}
}

// Queueable reports whether messages of this severity can be queued.
func (s Severity) Queueable() bool {
	return s >= Info && s <= Error
}

// Errors returned by the table.
var (
	ErrUnclassified    = errors.New("unclassified notification type")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrEmptyTypeName   = errors.New("type name cannot be empty")
)

// ParseSeverity parses a level name ("info", "warning", "error").
// "warn" is accepted as a shorthand.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Idle, fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
	}
}

// Built-in notification type names.
const (
	TypeMessage       = "message"
	TypeWarn          = "warn"
	TypeError         = "error"
	TypeStatusMessage = "statusmessage" // legacy alias of message
)

// Table maps notification type names to severities.
// A Table is immutable once built and safe for concurrent use.
type Table struct {
	entries map[string]Severity
}

// DefaultTable returns the built-in vocabulary.
func DefaultTable() *Table {
	return &Table{entries: map[string]Severity{
		TypeMessage:       Info,
		TypeWarn:          Warning,
		TypeError:         Error,
		TypeStatusMessage: Info,
	}}
}

// NewTable builds a table from the default vocabulary extended by extra.
// Entries in extra override built-in names. Every entry must be queueable.
func NewTable(extra map[string]Severity) (*Table, error) {
	t := DefaultTable()
	for name, sev := range extra {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrEmptyTypeName
		}
		if !sev.Queueable() {
			return nil, fmt.Errorf("%w: %q maps to %s", ErrInvalidSeverity, name, sev)
		}
		t.entries[name] = sev
	}
	return t, nil
}

// Classify returns the severity for a type name.
// Unknown names are rejected with ErrUnclassified.
func (t *Table) Classify(typeName string) (Severity, error) {
	sev, ok := t.entries[typeName]
	if !ok {
		return Idle, fmt.Errorf("%w: %q", ErrUnclassified, typeName)
	}
	return sev, nil
}

// Names returns the known type names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SplitEvents splits a comma-separated list of type names, trimming
// whitespace and dropping empty entries.
func SplitEvents(events string) []string {
	var out []string
	for _, item := range strings.Split(events, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
