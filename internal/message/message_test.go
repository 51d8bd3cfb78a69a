package message

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/severity"
)

func TestNew(t *testing.T) {
	m, err := New("warn", severity.Warning, "disk almost full", "<button>ok</button>")
	require.NoError(t, err)

	assert.Len(t, m.ID, 26)
	assert.Equal(t, "warn", m.Type)
	assert.Equal(t, severity.Warning, m.Severity)
	assert.Equal(t, "disk almost full", m.Content)
	assert.Equal(t, StatusPending, m.Status())
	assert.False(t, m.Settled())
	assert.False(t, m.CreatedAt.IsZero())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		sev      severity.Severity
		wantErr  error
	}{
		{"idle severity", "message", severity.Idle, ErrInvalidSeverity},
		{"out of range", "message", severity.Severity(9), ErrInvalidSeverity},
		{"empty type", "", severity.Info, ErrEmptyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.typeName, tt.sev, "x", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		m, err := New("message", severity.Info, "", "")
		require.NoError(t, err)
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestMessage_StatusTransitions(t *testing.T) {
	tests := []struct {
		reason Reason
		want   Status
	}{
		{ReasonDismissed, StatusDismissed},
		{ReasonExpired, StatusExpired},
		{ReasonClosed, StatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			m, err := New("message", severity.Info, "hello", "")
			require.NoError(t, err)

			m.MarkActive()
			assert.Equal(t, StatusActive, m.Status())

			m.Completion().Settle(Result{Reason: tt.reason})
			assert.Equal(t, tt.want, m.Status())

			// Completed messages never go back to active
			m.MarkActive()
			assert.Equal(t, tt.want, m.Status())
		})
	}
}

func TestMessage_Withdraw(t *testing.T) {
	m, err := New("message", severity.Info, "hello", "")
	require.NoError(t, err)

	assert.True(t, m.Withdraw("caller"))
	assert.False(t, m.Withdraw("caller"))

	r, ok := m.Completion().Result()
	require.True(t, ok)
	assert.Equal(t, ReasonClosed, r.Reason)
	assert.Equal(t, "caller", r.Source)
	assert.Equal(t, StatusClosed, m.Status())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "active", StatusActive.String())
	assert.Equal(t, "closed", StatusClosed.String())
	assert.Equal(t, "unknown", Status(99).String())
	assert.Equal(t, "unknown", Reason(0).String())
}

func TestCompletion_SettleOnce(t *testing.T) {
	c := NewCompletion()

	var calls []Result
	c.OnSettled(func(r Result) { calls = append(calls, r) })

	assert.True(t, c.Settle(Result{Reason: ReasonDismissed, Content: "first"}))
	assert.False(t, c.Settle(Result{Reason: ReasonExpired, Content: "second"}))

	require.Len(t, calls, 1)
	assert.Equal(t, "first", calls[0].Content)
	assert.False(t, calls[0].At.IsZero(), "settle stamps the time")

	r, ok := c.Result()
	assert.True(t, ok)
	assert.Equal(t, ReasonDismissed, r.Reason)
}

func TestCompletion_OnSettledAfterSettle(t *testing.T) {
	c := NewCompletion()
	c.Settle(Result{Reason: ReasonClosed})

	called := false
	c.OnSettled(func(r Result) {
		called = true
		assert.Equal(t, ReasonClosed, r.Reason)
	})
	assert.True(t, called)
}

func TestCompletion_Wait(t *testing.T) {
	c := NewCompletion()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Settle(Result{Reason: ReasonDismissed, Source: "key:x"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := c.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "key:x", r.Source)
	wg.Wait()

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestCompletion_WaitContextCancelled(t *testing.T) {
	c := NewCompletion()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Settled())
}
