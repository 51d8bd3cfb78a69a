package statusbar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/loop/looptest"
	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/severity"
)

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	f := looptest.New()
	r := NewRegistry()

	calls := 0
	create := func(name string) (*StatusBar, error) {
		calls++
		return New(f, Options{Name: name, Events: allEvents})
	}

	b1, created, err := r.Register("main", create)
	require.NoError(t, err)
	assert.True(t, created)

	b2, created, err := r.Register("main", create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, b1, b2)
	assert.Equal(t, 1, calls)

	got, ok := r.Get("main")
	assert.True(t, ok)
	assert.Same(t, b1, got)

	_, ok = r.Get("other")
	assert.False(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Register("", func(string) (*StatusBar, error) {
		t.Fatal("create must not be called")
		return nil, nil
	})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, _, err = r.Register("main", func(string) (*StatusBar, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.Names(), "failed registrations are not kept")
}

func TestRegistry_NamesAndBars(t *testing.T) {
	f := looptest.New()
	r := NewRegistry()

	for _, name := range []string{"tray", "alerts", "main"} {
		_, _, err := r.Register(name, func(name string) (*StatusBar, error) {
			return New(f, Options{Name: name, Events: allEvents})
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"alerts", "main", "tray"}, r.Names())

	var names []string
	for _, b := range r.Bars() {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{"alerts", "main", "tray"}, names)
}

func TestRegistry_Close(t *testing.T) {
	f := looptest.New()
	r := NewRegistry()
	ctx := context.Background()

	b, _, err := r.Register("main", func(name string) (*StatusBar, error) {
		return New(f, Options{Name: name, Events: allEvents})
	})
	require.NoError(t, err)
	f.Flush()

	msg, err := b.Queue(ctx, Event{Type: severity.TypeError, Content: "E1"})
	require.NoError(t, err)

	require.NoError(t, r.Close(ctx))
	assert.Empty(t, r.Names())
	assert.Equal(t, message.StatusClosed, msg.Status())

	_, err = b.Queue(ctx, Event{Type: severity.TypeError, Content: "E2"})
	assert.ErrorIs(t, err, ErrClosed)
}
