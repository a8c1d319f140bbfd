package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/vmath"
)

// Emitter is one placed instance of an effect
// It owns a runtime per component, indexed by RuntimeHandle in parent-first order
type Emitter struct {
	id     uuid.UUID
	system *ParticleSystem
	effect *effect.Effect
	log    *zap.Logger
	seed   uint64

	runtimes []*ComponentRuntime
	levels   [][]RuntimeHandle

	mu       sync.RWMutex
	location vmath.QuatTS
	bounds   vmath.AABB
	killed   bool
}

func newEmitter(sys *ParticleSystem, eff *effect.Effect, loc vmath.QuatTS) *Emitter {
	id := uuid.New()
	e := &Emitter{
		id:       id,
		system:   sys,
		effect:   eff,
		location: loc,
		bounds:   vmath.EmptyAABB(),
		log:      sys.log.With(zap.String("emitter", id.String()), zap.String("effect", eff.Name())),
	}
	// The uuid doubles as the emitter's random seed so placements differ
	for _, b := range id[:8] {
		e.seed = e.seed<<8 | uint64(b)
	}

	comps := eff.Components()
	e.runtimes = make([]*ComponentRuntime, len(comps))
	e.levels = make([][]RuntimeHandle, eff.MaxDepth()+1)
	for i, c := range comps {
		h := RuntimeHandle(i)
		e.runtimes[i] = newComponentRuntime(e, c, h)
		e.levels[c.Depth()] = append(e.levels[c.Depth()], h)
	}
	return e
}

// ID identifies the emitter in logs
func (e *Emitter) ID() uuid.UUID { return e.id }

func (e *Emitter) Effect() *effect.Effect { return e.effect }

// SetSeed replaces the random seed; call before Activate for reproducible runs
func (e *Emitter) SetSeed(seed uint64) { e.seed = seed }

// Runtime looks up a runtime by handle, nil when out of range
func (e *Emitter) Runtime(h RuntimeHandle) *ComponentRuntime {
	if h < 0 || int(h) >= len(e.runtimes) {
		return nil
	}
	return e.runtimes[h]
}

// RuntimeFor finds the runtime of a component by name
func (e *Emitter) RuntimeFor(name string) *ComponentRuntime {
	c, ok := e.effect.Component(name)
	if !ok {
		return nil
	}
	return e.Runtime(RuntimeHandle(c.Index()))
}

// Runtimes returns the table in handle order
func (e *Emitter) Runtimes() []*ComponentRuntime { return e.runtimes }

// Levels returns runtime handles grouped by dependency depth
func (e *Emitter) Levels() [][]RuntimeHandle { return e.levels }

func (e *Emitter) Location() vmath.QuatTS {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.location
}

// SetLocation moves the emitter; new root particles spawn at the new place
func (e *Emitter) SetLocation(loc vmath.QuatTS) {
	e.mu.Lock()
	e.location = loc
	e.mu.Unlock()
}

// Bounds returns the union of runtime bounds from the last update
func (e *Emitter) Bounds() vmath.AABB {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bounds
}

// Activate initializes every runtime and makes it alive, warming up when asked and the effect wants it
func (e *Emitter) Activate(prerun bool) {
	e.killed = false
	for _, r := range e.runtimes {
		r.Initialize()
		if r.comp.IsEnabled() {
			r.SetAlive()
		}
	}
	if !prerun || e.effect.PreRun() <= 0 {
		return
	}
	cfg := e.system.Config()
	duration := min(e.effect.PreRun(), maxPreRun)
	// Warm up whole frames so children see their parents advance in step
	for t := float32(0); t < duration; t += cfg.PreRunStep {
		step := min(cfg.PreRunStep, duration-t)
		for _, r := range e.runtimes {
			if r.alive {
				r.state = StatePreRunning
			}
		}
		for _, level := range e.levels {
			for _, h := range level {
				e.runtimes[h].UpdateAll(step)
			}
		}
	}
	for _, r := range e.runtimes {
		if r.alive {
			r.state = StateAlive
		}
	}
	e.reduceBounds()
}

// Kill stops spawning by removing root instances; existing particles finish their lives
func (e *Emitter) Kill() {
	e.killed = true
	for _, r := range e.runtimes {
		if !r.IsChild() && r.state != StateUninitialized {
			r.RemoveAllSubInstances()
		}
	}
}

// IsKilled reports whether Kill was called since the last Activate
func (e *Emitter) IsKilled() bool { return e.killed }

// Clear drops every particle immediately
func (e *Emitter) Clear() {
	for _, r := range e.runtimes {
		r.Clear()
	}
	e.mu.Lock()
	e.bounds = vmath.EmptyAABB()
	e.mu.Unlock()
}

// IsAlive reports whether any runtime still needs stepping
func (e *Emitter) IsAlive() bool {
	for _, r := range e.runtimes {
		if r.alive {
			return true
		}
	}
	return false
}

// NumParticles sums live particles over all runtimes
func (e *Emitter) NumParticles() int {
	n := 0
	for _, r := range e.runtimes {
		n += r.NumParticles()
	}
	return n
}

// EmitParticle emits one particle from a named root or child component on its next update
func (e *Emitter) EmitParticle(component string) bool {
	r := e.RuntimeFor(component)
	if r == nil || !r.alive {
		return false
	}
	r.EmitParticle()
	return true
}

// Update steps this emitter alone through the system's scheduler
func (e *Emitter) Update(ctx context.Context, dt float32) error {
	return e.system.scheduler.Run(ctx, []*Emitter{e}, dt)
}

// reduceBounds unions runtime bounds; called after every level has joined
func (e *Emitter) reduceBounds() {
	b := vmath.EmptyAABB()
	for _, r := range e.runtimes {
		if r.alive || r.HasParticles() {
			b.Add(r.Bounds())
		}
	}
	e.mu.Lock()
	e.bounds = b
	e.mu.Unlock()
}

func (e *Emitter) release() {
	for _, r := range e.runtimes {
		r.release()
	}
}
