package fader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimConverter_RunsBankRoundRobin(t *testing.T) {
	conv := NewSimConverter(0,
		Script(10, 11, 12),
		Constant(2000),
		Script(4095),
	)
	b, err := New(conv, rawFilters(3))
	require.NoError(t, err)
	require.NoError(t, b.Start())
	defer conv.Close()

	assert.Eventually(t, func() bool { return b.Cycles() >= 3 },
		time.Second, time.Millisecond)

	assert.Equal(t, uint16(12), b.Value(0), "script holds its last value")
	assert.Equal(t, uint16(2000), b.Value(1))
	assert.Equal(t, uint16(4095), b.Value(2))
	assert.NoError(t, b.Err())
}

func TestSimConverter_SourceCountMismatch(t *testing.T) {
	conv := NewSimConverter(0, Constant(1))
	defer conv.Close()

	b, err := New(conv, rawFilters(2))
	require.NoError(t, err)
	assert.Error(t, b.Start(), "two channels over one source")
}

func TestSimConverter_TriggerValidation(t *testing.T) {
	conv := NewSimConverter(0, Constant(1))
	defer conv.Close()

	assert.Error(t, conv.Trigger(0), "not configured yet")

	require.NoError(t, conv.Configure(1))
	assert.Error(t, conv.Trigger(1), "channel beyond wired sources")
}

func TestSimConverter_GracefulShutdown(t *testing.T) {
	conv := NewSimConverter(0, Sweep(50*time.Millisecond, 4))
	b, err := New(conv, rawFilters(1))
	require.NoError(t, err)
	require.NoError(t, b.Start())

	assert.Eventually(t, func() bool { return b.Conversions() >= 10 },
		time.Second, time.Millisecond)

	require.NoError(t, conv.Close())
	assert.ErrorIs(t, conv.Trigger(0), ErrSimClosed)
	require.NoError(t, conv.Close(), "close is idempotent")

	n := b.Conversions()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, b.Conversions(), "no completions after close")
}

func TestSources(t *testing.T) {
	t.Run("constant repeats", func(t *testing.T) {
		s := Constant(1234)
		assert.Equal(t, uint16(1234), s.Next())
		assert.Equal(t, uint16(1234), s.Next())
	})

	t.Run("script plays then holds", func(t *testing.T) {
		s := Script(1, 2, 3)
		got := []uint16{s.Next(), s.Next(), s.Next(), s.Next(), s.Next()}
		assert.Equal(t, []uint16{1, 2, 3, 3, 3}, got)
	})

	t.Run("empty script reads zero", func(t *testing.T) {
		s := Script()
		assert.Equal(t, uint16(0), s.Next())
	})

	t.Run("sweep stays in range", func(t *testing.T) {
		s := Sweep(10*time.Millisecond, 100)
		for i := 0; i < 200; i++ {
			assert.LessOrEqual(t, s.Next(), Max)
		}
	})
}

func TestTriangle(t *testing.T) {
	period := time.Second

	assert.Equal(t, Min, triangle(0, period))
	assert.Equal(t, Max, triangle(500*time.Millisecond, period))
	assert.Equal(t, Min, triangle(period, period), "wraps at the period")

	mid := triangle(250*time.Millisecond, period)
	assert.InDelta(t, int(Max)/2, int(mid), 2)

	assert.Equal(t, Min, triangle(123*time.Millisecond, 0), "zero period is flat")
}
