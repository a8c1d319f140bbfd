package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimClockExcludesPauses(t *testing.T) {
	src := NewManualTime(time.Unix(0, 0))
	c := NewSimClock(src)

	src.Advance(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, c.Elapsed())

	c.Pause()
	c.Pause()
	src.Advance(time.Second)
	assert.True(t, c.IsPaused())
	assert.Equal(t, 100*time.Millisecond, c.Elapsed())
	assert.Equal(t, time.Second, c.PausedTotal())

	c.Resume()
	src.Advance(50 * time.Millisecond)
	assert.False(t, c.IsPaused())
	assert.Equal(t, 150*time.Millisecond, c.Elapsed())
	assert.Equal(t, time.Second, c.PausedTotal())
}

func TestFrameLoopStep(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(burstEffect(t, 5, 1), at(0, 0, 0))
	require.NoError(t, err)

	loop := NewFrameLoop(sys, NewSimClock(NewManualTime(time.Unix(0, 0))), 0)
	var seen []float32
	loop.OnFrame = func(dt float32) { seen = append(seen, dt) }

	require.NoError(t, loop.Step(context.Background(), 62500*time.Microsecond))
	assert.Equal(t, uint64(1), loop.Ticks())
	assert.Equal(t, []float32{testDT}, seen)
	assert.Equal(t, 5, e.NumParticles())
}

func TestFrameLoopRunsUntilStopped(t *testing.T) {
	sys := newTestSystem(t)
	_, err := sys.CreateEmitter(burstEffect(t, 1, 1), at(0, 0, 0))
	require.NoError(t, err)

	loop := NewFrameLoop(sys, nil, time.Millisecond)
	loop.Start(context.Background())
	require.Eventually(t, func() bool { return loop.Ticks() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, loop.Stop())
	require.NoError(t, loop.Stop())

	n := loop.Ticks()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, n, loop.Ticks())
}

func TestFrameLoopPauseStopsTicks(t *testing.T) {
	sys := newTestSystem(t)
	loop := NewFrameLoop(sys, nil, time.Millisecond)
	loop.Pause()
	loop.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, loop.Ticks())

	loop.Resume()
	require.Eventually(t, func() bool { return loop.Ticks() > 0 }, 2*time.Second, time.Millisecond)
	require.NoError(t, loop.Stop())
}
