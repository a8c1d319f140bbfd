package engine

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/gpu"
	"github.com/lixenwraith/pfx/parameter"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/status"
	"github.com/lixenwraith/pfx/vmath"
)

const maxPreRun = parameter.MaxPreRun

// ErrNotCompiled is returned for effects that were never compiled
var ErrNotCompiled = errors.New("effect is not compiled")

// ParticleSystem owns the shared heap, the scheduler and every emitter
// Update, Render and emitter teardown serialize on one mutex, so a runtime is
// never released while its frame is in flight
type ParticleSystem struct {
	mu       sync.Mutex
	cfg      config.Config
	heap     *particle.Heap
	log      *zap.Logger
	audio    audio.System
	gpu      gpu.Device
	registry *status.Registry

	scheduler *FrameScheduler
	emitters  []*Emitter
	retired   Stats
	frames    int64
}

// Option configures a ParticleSystem
type Option func(*ParticleSystem)

func WithLogger(log *zap.Logger) Option      { return func(s *ParticleSystem) { s.log = log } }
func WithAudio(a audio.System) Option        { return func(s *ParticleSystem) { s.audio = a } }
func WithGPU(d gpu.Device) Option            { return func(s *ParticleSystem) { s.gpu = d } }
func WithRegistry(r *status.Registry) Option { return func(s *ParticleSystem) { s.registry = r } }
func WithHeap(h *particle.Heap) Option       { return func(s *ParticleSystem) { s.heap = h } }

// NewParticleSystem builds a system; missing collaborators get silent defaults
func NewParticleSystem(cfg config.Config, opts ...Option) *ParticleSystem {
	cfg.Normalize()
	s := &ParticleSystem{cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.audio == nil {
		s.audio = audio.Nop{}
	}
	if s.heap == nil {
		s.heap = particle.NewHeap()
	}
	if s.registry == nil {
		s.registry = status.NewRegistry()
	}
	s.scheduler = NewFrameScheduler(cfg.Workers, s.log)
	return s
}

// Config returns the active configuration
func (s *ParticleSystem) Config() config.Config { return s.cfg }

// SetConfig swaps the configuration between frames
func (s *ParticleSystem) SetConfig(cfg config.Config) {
	cfg.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.scheduler.SetWorkers(cfg.Workers)
	s.log.Info("particle system reconfigured", zap.Int("workers", cfg.Workers), zap.Bool("stability_check", cfg.StabilityCheck))
}

func (s *ParticleSystem) Heap() *particle.Heap       { return s.heap }
func (s *ParticleSystem) Registry() *status.Registry { return s.registry }
func (s *ParticleSystem) Scheduler() *FrameScheduler { return s.scheduler }
func (s *ParticleSystem) Audio() audio.System        { return s.audio }

// CreateEmitter places a compiled effect and activates it, warming up if the effect asks
func (s *ParticleSystem) CreateEmitter(eff *effect.Effect, loc vmath.QuatTS) (*Emitter, error) {
	return s.createEmitter(eff, loc, nil)
}

// CreateSeededEmitter is CreateEmitter with a fixed random seed, for reproducible runs
func (s *ParticleSystem) CreateSeededEmitter(eff *effect.Effect, loc vmath.QuatTS, seed uint64) (*Emitter, error) {
	return s.createEmitter(eff, loc, &seed)
}

func (s *ParticleSystem) createEmitter(eff *effect.Effect, loc vmath.QuatTS, seed *uint64) (*Emitter, error) {
	if eff == nil || !eff.Compiled() {
		return nil, ErrNotCompiled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := newEmitter(s, eff, loc)
	if seed != nil {
		e.SetSeed(*seed)
	}
	e.Activate(true)
	s.emitters = append(s.emitters, e)
	e.log.Debug("emitter created", zap.Int("runtimes", len(e.runtimes)))
	return e, nil
}

// Emitters returns a snapshot of the emitter list
func (s *ParticleSystem) Emitters() []*Emitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.emitters)
}

// Remove tears an emitter down after any in-flight frame
func (s *ParticleSystem) Remove(e *Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(e)
}

func (s *ParticleSystem) removeLocked(e *Emitter) {
	i := slices.Index(s.emitters, e)
	if i < 0 {
		return
	}
	for _, r := range e.runtimes {
		s.retired.Add(r.stats)
	}
	e.release()
	s.emitters = slices.Delete(s.emitters, i, i+1)
}

// Kill stops an emitter between frames; it is removed once its particles are gone
func (s *ParticleSystem) Kill(e *Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Kill()
}

// KillAll kills every emitter
func (s *ParticleSystem) KillAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emitters {
		e.Kill()
	}
}

// Update steps every emitter; killed emitters are removed once nothing is left alive
func (s *ParticleSystem) Update(ctx context.Context, dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt = min(max(dt, 0), s.cfg.MaxFrameTime)
	if err := s.scheduler.Run(ctx, s.emitters, dt); err != nil {
		return errors.Wrap(err, "particle frame")
	}
	s.frames++

	for _, e := range slices.Clone(s.emitters) {
		if e.killed && !e.IsAlive() {
			s.removeLocked(e)
		}
	}
	s.statsLocked().Publish(s.registry)
	s.registry.Particle.Frames.Store(s.frames)
	return nil
}

// Render submits every alive runtime to pass and runs the CPU producers
func (s *ParticleSystem) Render(pass *render.Pass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emitters {
		for _, r := range e.runtimes {
			r.RenderAll(pass)
		}
	}
	pass.Execute()
}

// Stats sums counters over all emitters, including removed ones
func (s *ParticleSystem) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *ParticleSystem) statsLocked() Stats {
	st := Stats{}
	st.Add(s.retired)
	for _, e := range s.emitters {
		for _, r := range e.runtimes {
			r.AccumStats(&st)
		}
	}
	return st
}

// Close removes every emitter
func (s *ParticleSystem) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.emitters) > 0 {
		s.removeLocked(s.emitters[len(s.emitters)-1])
	}
}
