package looptest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_FlushRunsOnlyDueTasks(t *testing.T) {
	f := New()

	var got []string
	f.Schedule(0, func() { got = append(got, "now") })
	f.Schedule(time.Second, func() { got = append(got, "later") })

	f.Flush()
	assert.Equal(t, []string{"now"}, got)
	assert.Equal(t, 1, f.Pending())

	f.Advance(time.Second)
	assert.Equal(t, []string{"now", "later"}, got)
	assert.Equal(t, Epoch.Add(time.Second), f.Now())
}

func TestFake_ClockReadsDueTime(t *testing.T) {
	f := New()

	var at time.Time
	f.Schedule(200*time.Millisecond, func() { at = f.Now() })
	f.Advance(time.Second)

	assert.Equal(t, Epoch.Add(200*time.Millisecond), at)
	assert.Equal(t, Epoch.Add(time.Second), f.Now())
}

func TestFake_NestedScheduling(t *testing.T) {
	f := New()

	var got []int
	f.Schedule(0, func() {
		got = append(got, 1)
		f.Schedule(0, func() { got = append(got, 2) })
		f.Schedule(10*time.Millisecond, func() { got = append(got, 3) })
	})

	f.Flush()
	assert.Equal(t, []int{1, 2}, got)

	f.Advance(10 * time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestFake_Stop(t *testing.T) {
	f := New()

	ran := false
	timer := f.Schedule(0, func() { ran = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	f.Flush()
	assert.False(t, ran)
	assert.Equal(t, 0, f.Pending())
}
