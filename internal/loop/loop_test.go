package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(nil)
	l.Start()
	t.Cleanup(l.Stop)
	return l
}

func TestLoop_RunsInOrder(t *testing.T) {
	l := startLoop(t)

	var mu sync.Mutex
	var got []int
	for i := range 5 {
		l.Schedule(0, func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	require.NoError(t, l.Do(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_DelayedTask(t *testing.T) {
	l := startLoop(t)

	start := time.Now()
	fired := make(chan time.Time, 1)
	l.Schedule(30*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 30*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task never ran")
	}
}

func TestLoop_StopTimer(t *testing.T) {
	l := startLoop(t)

	ran := make(chan struct{}, 1)
	timer := l.Schedule(20*time.Millisecond, func() { ran <- struct{}{} })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports nothing cancelled")

	select {
	case <-ran:
		t.Fatal("stopped task ran")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestLoop_StopAfterFire(t *testing.T) {
	l := startLoop(t)

	timer := l.Schedule(0, func() {})
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, timer.Stop())
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := New(nil)
	l.Start()
	l.Stop()
	l.Stop() // idempotent

	err := l.Do(context.Background(), func() { t.Fatal("must not run") })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLoop_DoContextCancelled(t *testing.T) {
	l := New(nil) // never started
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_RecoversFromPanic(t *testing.T) {
	l := startLoop(t)

	l.Schedule(0, func() { panic("boom") })

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}
