package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/core"
)

// FrameLoop drives a ParticleSystem on a fixed tick with drift correction
// dt is measured on a SimClock, so pauses do not produce a catch-up frame
type FrameLoop struct {
	system   *ParticleSystem
	clock    *SimClock
	interval time.Duration
	log      *zap.Logger

	// OnFrame runs after every update, on the loop goroutine
	OnFrame func(dt float32)

	ticks   atomic.Uint64
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	err     error
}

// NewFrameLoop uses the configured tick interval when interval <= 0
func NewFrameLoop(sys *ParticleSystem, clock *SimClock, interval time.Duration) *FrameLoop {
	if clock == nil {
		clock = NewSimClock(nil)
	}
	if interval <= 0 {
		interval = sys.Config().TickInterval.Duration
	}
	return &FrameLoop{
		system:   sys,
		clock:    clock,
		interval: interval,
		log:      sys.log.Named("loop"),
	}
}

func (l *FrameLoop) Clock() *SimClock { return l.clock }

// Ticks counts completed updates
func (l *FrameLoop) Ticks() uint64 { return l.ticks.Load() }

func (l *FrameLoop) Pause()  { l.clock.Pause() }
func (l *FrameLoop) Resume() { l.clock.Resume() }

// Start runs the loop until ctx is cancelled or Stop is called
func (l *FrameLoop) Start(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	core.Go(func() {
		defer l.wg.Done()
		l.err = l.run(ctx)
	})
}

// Stop halts the loop and returns the error that ended it, if any besides cancellation
func (l *FrameLoop) Stop() error {
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}
	l.cancel()
	l.wg.Wait()
	if errors.Is(l.err, context.Canceled) {
		return nil
	}
	return l.err
}

func (l *FrameLoop) run(ctx context.Context) error {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	last := l.clock.Elapsed()
	next := last + l.interval
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if l.clock.IsPaused() {
			// Idle slower while paused
			timer.Reset(l.interval * 2)
			continue
		}

		now := l.clock.Elapsed()
		if now >= next {
			if err := l.Step(ctx, now-last); err != nil {
				return err
			}
			last = now
			next += l.interval
			if now-next > 2*l.interval {
				l.log.Debug("frame loop behind, resyncing", zap.Duration("behind", now-next))
				next = now + l.interval
			}
		}
		timer.Reset(max(next-l.clock.Elapsed(), time.Millisecond))
	}
}

// Step performs one update of elapsed simulated time
func (l *FrameLoop) Step(ctx context.Context, elapsed time.Duration) error {
	dt := float32(elapsed.Seconds())
	if err := l.system.Update(ctx, dt); err != nil {
		return err
	}
	l.ticks.Add(1)
	if l.OnFrame != nil {
		l.OnFrame(dt)
	}
	return nil
}
