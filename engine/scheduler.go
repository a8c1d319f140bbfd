package engine

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/pfx/core"
)

// FrameScheduler steps runtimes of many emitters level by level
// Runtimes of one depth run in parallel; the join between levels is what lets
// children read parent containers without locks
type FrameScheduler struct {
	workers int
	log     *zap.Logger
}

// NewFrameScheduler bounds parallelism to workers, one per CPU when <= 0
func NewFrameScheduler(workers int, log *zap.Logger) *FrameScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &FrameScheduler{log: log}
	s.SetWorkers(workers)
	return s
}

// SetWorkers changes the limit for subsequent frames
func (s *FrameScheduler) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	s.workers = n
}

// Workers returns the current limit
func (s *FrameScheduler) Workers() int { return s.workers }

// Run advances every alive runtime by dt, then reduces emitter bounds
// A panicking runtime is disabled and logged; its siblings still run
// Only context cancellation aborts the frame
func (s *FrameScheduler) Run(ctx context.Context, emitters []*Emitter, dt float32) error {
	depth := 0
	for _, e := range emitters {
		depth = max(depth, len(e.levels))
	}

	for level := 0; level < depth; level++ {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for _, e := range emitters {
			if level >= len(e.levels) {
				continue
			}
			for _, h := range e.levels[level] {
				rt := e.runtimes[h]
				if !rt.IsAlive() {
					continue
				}
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					s.step(rt, dt)
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, e := range emitters {
		e.reduceBounds()
	}
	return nil
}

func (s *FrameScheduler) step(rt *ComponentRuntime, dt float32) {
	err := core.RunSafe(func() error {
		rt.UpdateAll(dt)
		return nil
	})
	if err == nil {
		return
	}
	rt.stats.Faults++
	rt.log.Error("runtime update failed, disabling", zap.Error(err))
	// Leave the container as is; a clear could itself fault on broken state
	rt.alive = false
}
