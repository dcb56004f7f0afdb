package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferrer_FiresAfterDelay(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	calls := 0
	d.Schedule("a", 4*time.Second, func(context.Context) error { calls++; return nil })
	assert.True(t, d.Scheduled("a"))

	clock.Advance(3 * time.Second)
	assert.Equal(t, 0, calls)

	clock.Advance(time.Second)
	assert.Equal(t, 1, calls)
	assert.False(t, d.Scheduled("a"))
	assert.Zero(t, d.Len())
}

func TestDeferrer_CancelBeforeFire(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	calls := 0
	d.Schedule("a", time.Second, func(context.Context) error { calls++; return nil })
	require.True(t, d.Cancel("a"))

	clock.Advance(time.Minute)
	assert.Equal(t, 0, calls)
	assert.False(t, d.Cancel("a"))
}

func TestDeferrer_CancelAfterFireReturnsFalse(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	d.Schedule("a", time.Second, func(context.Context) error { return nil })
	clock.Advance(time.Second)

	assert.False(t, d.Cancel("a"))
}

func TestDeferrer_RescheduleReplacesTask(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	var got []string
	d.Schedule("a", time.Second, func(context.Context) error { got = append(got, "first"); return nil })
	d.Schedule("a", 2*time.Second, func(context.Context) error { got = append(got, "second"); return nil })

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"second"}, got)
}

func TestDeferrer_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	var got []string
	d.Schedule("a", time.Second, func(context.Context) error { got = append(got, "a"); return nil })
	d.Schedule("b", time.Second, func(context.Context) error { got = append(got, "b"); return nil })
	require.True(t, d.Cancel("b"))

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a"}, got)
}

func TestDeferrer_FireRunsNow(t *testing.T) {
	clock := newFakeClock()
	d := NewDeferrer(clock.AfterFunc)

	calls := 0
	d.Schedule("a", time.Hour, func(context.Context) error { calls++; return assert.AnError })

	fired, err := d.Fire(context.Background(), "a")
	assert.True(t, fired)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)

	// the stopped timer must not run it again
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, calls)

	fired, err = d.Fire(context.Background(), "a")
	assert.False(t, fired)
	assert.NoError(t, err)
}

func TestDeferrer_RealTimer(t *testing.T) {
	d := NewDeferrer(nil)
	done := make(chan struct{})
	d.Schedule("a", 10*time.Millisecond, func(context.Context) error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}
}

func TestOptimistic(t *testing.T) {
	t.Run("success keeps change", func(t *testing.T) {
		state := 0
		err := Optimistic(
			func() bool { state = 1; return true },
			func() error { return nil },
			func() { state = 0 },
		)
		require.NoError(t, err)
		assert.Equal(t, 1, state)
	})

	t.Run("failure reverts", func(t *testing.T) {
		state := 0
		err := Optimistic(
			func() bool { state = 1; return true },
			func() error { return assert.AnError },
			func() { state = 0 },
		)
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 0, state)
	})

	t.Run("no change skips call", func(t *testing.T) {
		called := false
		err := Optimistic(
			func() bool { return false },
			func() error { called = true; return nil },
			func() {},
		)
		require.NoError(t, err)
		assert.False(t, called)
	})
}

func TestList(t *testing.T) {
	l := newList(func(s string) string { return s })
	l.replace([]string{"a", "b", "a", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, l.snapshot())

	l.prepend("c")
	assert.Equal(t, []string{"c", "a", "b"}, l.snapshot())

	assert.True(t, l.update("a", func(s string) string { return s }))
	assert.False(t, l.update("zz", func(s string) string { return s }))

	assert.True(t, l.remove("a"))
	assert.False(t, l.remove("a"))

	_, ok := l.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, l.len())
}
