package engine

import (
	"sync"
	"time"
)

// TimeSource supplies wall time; tests substitute ManualTime
type TimeSource interface {
	Now() time.Time
}

type wallTime struct{}

func (wallTime) Now() time.Time { return time.Now() }

// WallTime reads the monotonic system clock
var WallTime TimeSource = wallTime{}

// ManualTime is a TimeSource advanced by hand
type ManualTime struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualTime(start time.Time) *ManualTime {
	return &ManualTime{now: start}
}

func (m *ManualTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the time forward by d
func (m *ManualTime) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// SimClock is simulation time: wall time minus every paused span
type SimClock struct {
	mu     sync.RWMutex
	src    TimeSource
	start  time.Time
	paused bool
	since  time.Time
	total  time.Duration
}

// NewSimClock starts a clock at zero elapsed; nil src means WallTime
func NewSimClock(src TimeSource) *SimClock {
	if src == nil {
		src = WallTime
	}
	return &SimClock{src: src, start: src.Now()}
}

// Elapsed returns simulated time since creation, frozen while paused
func (c *SimClock) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.paused {
		return c.since.Sub(c.start) - c.total
	}
	return c.src.Now().Sub(c.start) - c.total
}

func (c *SimClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.paused = true
		c.since = c.src.Now()
	}
}

func (c *SimClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.paused = false
		c.total += c.src.Now().Sub(c.since)
		c.since = time.Time{}
	}
}

func (c *SimClock) IsPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// PausedTotal includes the current pause, if any
func (c *SimClock) PausedTotal() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.paused {
		return c.total + c.src.Now().Sub(c.since)
	}
	return c.total
}
