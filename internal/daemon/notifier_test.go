package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/severity"
)

func TestInternalNotifier(t *testing.T) {
	var got []input.Event
	h := input.HandlerFunc(func(_ context.Context, ev input.Event) error {
		if ev.Type == "rejected" {
			return errors.New("not subscribed")
		}
		got = append(got, ev)
		return nil
	})

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := NewInternalNotifier(h, nil)
	n.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, n.NotifyConfigReloaded(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, severity.TypeMessage, got[0].Type)
	assert.Equal(t, 5*time.Second, got[0].Timeout)
	assert.Equal(t, NotifySource, got[0].Source)
	assert.Equal(t, input.ActionQueue, got[0].Action)

	assert.False(t, n.NotifyConfigReloaded(ctx), "same key within the interval")
	assert.True(t, n.NotifyAudioError(ctx, errors.New("no device")), "keys are limited separately")

	now = now.Add(5 * time.Second)
	assert.True(t, n.NotifyConfigReloaded(ctx))

	n.SetBar("alerts")
	n.SetMinInterval(0)
	assert.True(t, n.NotifyConfigError(ctx, errors.New("bad file")))
	last := got[len(got)-1]
	assert.Equal(t, "alerts", last.Bar)
	assert.Equal(t, severity.TypeWarn, last.Type)
	assert.Equal(t, "Failed to reload configuration: bad file", last.Content)

	assert.False(t, n.Notify(ctx, "x", "rejected", "dropped", 0))

	n.SetEnabled(false)
	assert.False(t, n.NotifyConfigError(ctx, errors.New("bad file")))
	assert.Len(t, got, 4)
}
