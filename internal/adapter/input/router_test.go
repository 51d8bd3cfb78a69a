package input

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/loop/looptest"
	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

func newTestRouter(t *testing.T) (*Router, *statusbar.Registry, *looptest.Fake) {
	t.Helper()
	f := looptest.New()
	reg := newTestRegistry(t, f, map[string][]string{
		"alerts": {severity.TypeError},
		"main":   {severity.TypeMessage, severity.TypeWarn, severity.TypeError},
	})
	return NewRouter(reg, nil), reg, f
}

// newTestRegistry registers one bar per entry of events.
func newTestRegistry(t *testing.T, f *looptest.Fake, events map[string][]string) *statusbar.Registry {
	t.Helper()
	reg := statusbar.NewRegistry()
	for name, evs := range events {
		_, _, err := reg.Register(name, func(name string) (*statusbar.StatusBar, error) {
			return statusbar.New(f, statusbar.Options{Name: name, Events: evs})
		})
		require.NoError(t, err)
	}
	f.Flush()
	return reg
}

func queueEvent(typeName, content string) Event {
	return Event{
		Event:  statusbar.Event{Type: typeName, Content: content},
		Action: ActionQueue,
		Source: "test",
	}
}

func TestRouter_PicksFirstSubscribedBar(t *testing.T) {
	r, reg, f := newTestRouter(t)
	ctx := context.Background()

	e1, err := r.Queue(ctx, queueEvent(severity.TypeError, "E1"))
	require.NoError(t, err)
	i1, err := r.Queue(ctx, queueEvent(severity.TypeMessage, "I1"))
	require.NoError(t, err)
	f.Flush()

	alerts, _ := reg.Get("alerts")
	mainBar, _ := reg.Get("main")

	s, err := alerts.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, e1, s.Active)

	s, err = mainBar.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, i1, s.Active)

	assert.Equal(t, 2, r.Outstanding())
}

func TestRouter_NamedBar(t *testing.T) {
	r, reg, f := newTestRouter(t)
	ctx := context.Background()

	ev := queueEvent(severity.TypeError, "E1")
	ev.Bar = "main"
	msg, err := r.Queue(ctx, ev)
	require.NoError(t, err)
	f.Flush()

	mainBar, _ := reg.Get("main")
	s, err := mainBar.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, msg, s.Active)

	ev.Bar = "nope"
	_, err = r.Queue(ctx, ev)
	assert.ErrorIs(t, err, ErrUnknownBar)

	ev = queueEvent(severity.TypeWarn, "W1")
	ev.Bar = "alerts"
	_, err = r.Queue(ctx, ev)
	assert.ErrorIs(t, err, statusbar.ErrNotSubscribed)
}

func TestRouter_Unroutable(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, err := r.Queue(context.Background(), queueEvent("bogus", "x"))
	assert.ErrorIs(t, err, severity.ErrUnclassified)

	empty := NewRouter(statusbar.NewRegistry(), nil)
	_, err = empty.Queue(context.Background(), queueEvent(severity.TypeError, "x"))
	assert.ErrorIs(t, err, ErrNoBars)
}

func TestRouter_NoSubscriber(t *testing.T) {
	f := looptest.New()
	reg := newTestRegistry(t, f, map[string][]string{"alerts": {severity.TypeError}})
	r := NewRouter(reg, nil)

	_, err := r.Queue(context.Background(), queueEvent(severity.TypeWarn, "W1"))
	assert.ErrorIs(t, err, statusbar.ErrNotSubscribed)
}

func TestRouter_Dismiss(t *testing.T) {
	r, _, f := newTestRouter(t)
	ctx := context.Background()

	msg, err := r.Queue(ctx, queueEvent(severity.TypeMessage, "I1"))
	require.NoError(t, err)
	f.Flush()

	require.NoError(t, r.Handle(ctx, Event{Action: ActionDismiss, Bar: "main", Source: "stdin"}))

	res, ok := msg.Completion().Result()
	require.True(t, ok)
	assert.Equal(t, message.ReasonDismissed, res.Reason)
	assert.Equal(t, "stdin", res.Source)
	assert.Equal(t, 0, r.Outstanding())

	err = r.Handle(ctx, Event{Action: ActionDismiss, Bar: "main"})
	assert.ErrorIs(t, err, statusbar.ErrNoActiveMessage)
}

func TestRouter_DismissFirstActiveBar(t *testing.T) {
	r, _, f := newTestRouter(t)
	ctx := context.Background()

	msg, err := r.Queue(ctx, queueEvent(severity.TypeMessage, "I1"))
	require.NoError(t, err)
	f.Flush()

	require.NoError(t, r.Handle(ctx, Event{Action: ActionDismiss}))
	assert.Equal(t, message.StatusDismissed, msg.Status())
}

func TestRouter_Withdraw(t *testing.T) {
	r, _, f := newTestRouter(t)
	ctx := context.Background()

	_, err := r.Queue(ctx, queueEvent(severity.TypeMessage, "I1"))
	require.NoError(t, err)
	i2, err := r.Queue(ctx, queueEvent(severity.TypeMessage, "I2"))
	require.NoError(t, err)
	f.Flush()

	require.NoError(t, r.Handle(ctx, Event{Action: ActionWithdraw, ID: i2.ID}))
	assert.Equal(t, message.StatusClosed, i2.Status())
	assert.Equal(t, 1, r.Outstanding())

	err = r.Handle(ctx, Event{Action: ActionWithdraw, ID: i2.ID})
	assert.ErrorIs(t, err, ErrUnknownMessage)
}
