package input

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     Event
		wantSkip bool
		wantErr  bool
	}{
		{
			name:     "blank",
			line:     "   ",
			wantSkip: true,
		},
		{
			name:     "comment",
			line:     "# nothing to see",
			wantSkip: true,
		},
		{
			name: "plain text",
			line: "build finished",
			want: Event{
				Event:  statusbar.Event{Type: severity.TypeMessage, Content: "build finished"},
				Action: ActionQueue,
			},
		},
		{
			name: "full json",
			line: `{"type":"error","content":"disk full","footer":"df","timeout":"5s","bar":"main"}`,
			want: Event{
				Event: statusbar.Event{
					Type:    "error",
					Content: "disk full",
					Footer:  "df",
					Timeout: 5 * time.Second,
				},
				Action: ActionQueue,
				Bar:    "main",
			},
		},
		{
			name: "timeout in seconds",
			line: `{"type":"warn","content":"hot","timeout":1.5}`,
			want: Event{
				Event:  statusbar.Event{Type: "warn", Content: "hot", Timeout: 1500 * time.Millisecond},
				Action: ActionQueue,
			},
		},
		{
			name: "dismiss",
			line: `{"action":"dismiss","bar":"main"}`,
			want: Event{Action: ActionDismiss, Bar: "main"},
		},
		{
			name: "withdraw",
			line: `{"action":"withdraw","id":"01J"}`,
			want: Event{Action: ActionWithdraw, ID: "01J"},
		},
		{name: "withdraw without id", line: `{"action":"withdraw"}`, wantErr: true},
		{name: "missing type", line: `{"content":"x"}`, wantErr: true},
		{name: "unknown action", line: `{"action":"explode"}`, wantErr: true},
		{name: "unknown field", line: `{"type":"error","colour":"red"}`, wantErr: true},
		{name: "bad timeout", line: `{"type":"error","timeout":"soon"}`, wantErr: true},
		{name: "negative timeout", line: `{"type":"error","timeout":"-1s"}`, wantErr: true},
		{name: "timeout beyond duration range", line: `{"type":"message","content":"x","timeout":1e300}`, wantErr: true},
		{name: "negative seconds beyond range", line: `{"type":"message","content":"x","timeout":-1e300}`, wantErr: true},
		{name: "timeout just past range", line: `{"type":"message","content":"x","timeout":9223372037}`, wantErr: true},
		{name: "broken json", line: `{"type":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skip, err := ParseLine([]byte(tt.line))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.want, got)
		})
	}
}

type collector struct {
	events []Event
	reject string
}

func (c *collector) Handle(_ context.Context, ev Event) error {
	if ev.Content == c.reject {
		return errors.New("rejected")
	}
	c.events = append(c.events, ev)
	return nil
}

func TestLineSource_Run(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"error","content":"E1"}`,
		`not json but fine`,
		`{"type":`,
		``,
		`{"type":"warn","content":"reject me"}`,
		`{"type":"warn","content":"W1"}`,
	}, "\n")

	src := NewLineSourceWithReader("test", strings.NewReader(input))
	assert.Equal(t, "test", src.Name())

	c := &collector{reject: "reject me"}
	require.NoError(t, src.Run(context.Background(), c))

	require.Len(t, c.events, 3)
	assert.Equal(t, "E1", c.events[0].Content)
	assert.Equal(t, "not json but fine", c.events[1].Content)
	assert.Equal(t, "W1", c.events[2].Content)
	for _, ev := range c.events {
		assert.Equal(t, "test", ev.Source)
	}
}

func TestLineSource_ContextCancelled(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	src := NewLineSourceWithReader("pipe", r)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = src.Run(ctx, &collector{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewLineSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	src, err := NewLineSource(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Name())

	c := &collector{}
	require.NoError(t, src.Run(context.Background(), c))
	require.Len(t, c.events, 1)
	assert.Equal(t, "hello", c.events[0].Content)

	stdin, err := NewLineSource("-")
	require.NoError(t, err)
	assert.Equal(t, "stdin", stdin.Name())

	_, err = NewLineSource(filepath.Join(t.TempDir(), "missing"))
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdapterError(t *testing.T) {
	err := &AdapterError{Source: "stdin", Message: "failed to read input", Err: errors.New("eof")}
	assert.Equal(t, "failed to read input: eof", err.Error())
	assert.Equal(t, "no input", (&AdapterError{Message: "no input"}).Error())
}
