package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/gpu"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/vmath"
)

// RuntimeHandle indexes an emitter's runtime table, in effect component order
type RuntimeHandle int

const InvalidHandle RuntimeHandle = -1

// RuntimeState is the lifecycle position of a runtime
type RuntimeState uint8

const (
	StateUninitialized RuntimeState = iota
	StateInitialized
	StatePreRunning
	StateAlive
	StateCleared
)

var stateNames = [...]string{"uninitialized", "initialized", "prerunning", "alive", "cleared"}

func (s RuntimeState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ComponentRuntime simulates one component of one emitter
// Only its own frame task mutates it; the parent runtime reaches in solely
// to reparent and queue instances, which happens a dependency level earlier
type ComponentRuntime struct {
	emitter  *Emitter
	comp     *effect.Component
	handle   RuntimeHandle
	parent   RuntimeHandle
	children []RuntimeHandle
	log      *zap.Logger

	state RuntimeState
	alive bool

	container *particle.Container
	instances *particle.InstanceTable
	pending   []particle.Instance
	emitQueue []particle.SpawnEntry

	spawnScratch  []particle.SpawnEntry
	removeScratch []particle.ID
	swapScratch   []particle.ID

	seed   uint64
	frame  uint64
	dt     float32
	chaos  vmath.ChaosKey
	chaosV vmath.ChaosKeyV
	bounds vmath.AABB

	gpu        gpu.Runtime
	gpuFrame   gpu.FrameData
	gpuRemoved int64
	element    render.Element

	stats Stats
}

func newComponentRuntime(e *Emitter, comp *effect.Component, handle RuntimeHandle) *ComponentRuntime {
	r := &ComponentRuntime{
		emitter: e,
		comp:    comp,
		handle:  handle,
		parent:  InvalidHandle,
		log:     e.log.With(zap.String("component", comp.Name())),
		bounds:  vmath.EmptyAABB(),
		element: render.Element{Name: comp.Name(), Priority: comp.Index()},
	}
	if p := comp.Parent(); p != nil {
		r.parent = RuntimeHandle(p.Index())
	}
	for _, ch := range comp.Children() {
		r.children = append(r.children, RuntimeHandle(ch.Index()))
	}
	return r
}

// Initialize binds storage and the GPU delegate and resets bounds; the runtime is not alive until SetAlive
// Root components receive their single instance bound to the synthetic root, committed immediately
func (r *ComponentRuntime) Initialize() {
	params := r.comp.Params()
	ck := vmath.ChaosKeyFor(r.emitter.seed, uint32(r.handle), 0)
	r.seed = ck.Next() ^ params.Seed
	r.chaos = ck

	if r.container == nil {
		r.container = particle.NewContainer(r.emitter.system.heap, params.Schema)
	} else {
		r.container.Clear()
	}
	r.instances = particle.NewInstanceTable(params.Layout)
	r.pending = r.pending[:0]
	r.emitQueue = r.emitQueue[:0]

	if params.UseGPU && r.gpu == nil {
		r.gpu = r.createGPURuntime(params)
	}
	if r.gpu == nil {
		cfg := r.emitter.system.Config()
		if total, _ := r.MaxParticleCounts(cfg.MinFPS, cfg.MaxFPS); total > 0 {
			r.container.Reserve(total)
		}
	}

	// The root instance is usable before the first update so callers can spawn right away
	if !r.IsChild() {
		r.AddInstances([]particle.Instance{{ParentID: 0}})
		r.commitInstances()
	}
	r.bounds = vmath.EmptyAABB()
	r.alive = false
	r.state = StateInitialized
}

func (r *ComponentRuntime) createGPURuntime(params *effect.ComponentParams) gpu.Runtime {
	dev := r.emitter.system.gpu
	if dev == nil {
		r.log.Warn("gpu component without device, running on cpu")
		return nil
	}
	rt, err := dev.CreateRuntime(params)
	if err != nil {
		r.log.Warn("gpu runtime unavailable, running on cpu", zap.Error(err))
		return nil
	}
	return rt
}

// SetAlive marks an initialized runtime for stepping
func (r *ComponentRuntime) SetAlive() {
	if r.state == StateUninitialized {
		return
	}
	r.alive = true
	r.state = StateAlive
}

// IsAlive reports whether the runtime should still be stepped
func (r *ComponentRuntime) IsAlive() bool { return r.alive }

// State returns the lifecycle state
func (r *ComponentRuntime) State() RuntimeState { return r.state }

// Clear drops every particle and instance and returns to Initialized, keeping buffers
func (r *ComponentRuntime) Clear() {
	if r.state == StateUninitialized {
		return
	}
	r.container.Clear()
	r.instances.Clear()
	r.pending = r.pending[:0]
	r.emitQueue = r.emitQueue[:0]
	r.bounds = vmath.EmptyAABB()
	r.gpuFrame = gpu.FrameData{}
	if r.gpu != nil {
		r.gpu.UpdateFrame(gpu.FrameData{Clear: true})
		r.syncGPURemoved()
	}
	r.alive = false
	r.state = StateInitialized
}

// release gives column memory back to the shared heap and frees the delegate
func (r *ComponentRuntime) release() {
	if r.container != nil {
		r.container.Release()
	}
	if r.gpu != nil {
		r.gpu.Release()
		r.gpu = nil
	}
	r.alive = false
	r.state = StateCleared
}

// PreRun advances the simulation by duration in fixed steps without rendering
func (r *ComponentRuntime) PreRun(duration, step float32) {
	if !r.alive || duration <= 0 || step <= 0 {
		return
	}
	r.state = StatePreRunning
	for t := float32(0); t < duration && r.alive; t += step {
		r.UpdateAll(min(step, duration-t))
	}
	if r.alive {
		r.state = StateAlive
	}
}

// IsPreRunning reports whether the current update is a warm-up step
func (r *ComponentRuntime) IsPreRunning() bool { return r.state == StatePreRunning }

func (r *ComponentRuntime) IsCPURuntime() bool      { return r.gpu == nil }
func (r *ComponentRuntime) GPURuntime() gpu.Runtime { return r.gpu }

func (r *ComponentRuntime) Component() *effect.Component { return r.comp }

// IsValidForComponent reports whether the runtime still matches its emitter's effect
func (r *ComponentRuntime) IsValidForComponent() bool {
	if r.state == StateUninitialized || r.comp == nil {
		return false
	}
	comps := r.emitter.effect.Components()
	return int(r.handle) < len(comps) && comps[r.handle] == r.comp
}

func (r *ComponentRuntime) Handle() RuntimeHandle  { return r.handle }
func (r *ComponentRuntime) Emitter() *Emitter      { return r.emitter }
func (r *ComponentRuntime) Logger() *zap.Logger    { return r.log }
func (r *ComponentRuntime) Audio() audio.System    { return r.emitter.system.audio }
func (r *ComponentRuntime) Bounds() vmath.AABB     { return r.bounds }
func (r *ComponentRuntime) DeltaTime() float32     { return r.dt }
func (r *ComponentRuntime) Chaos() *vmath.ChaosKey { return &r.chaos }

func (r *ComponentRuntime) ChaosV() *vmath.ChaosKeyV { return &r.chaosV }

func (r *ComponentRuntime) Params() *effect.ComponentParams { return r.comp.Params() }

// AddBounds grows the bounds to include b
func (r *ComponentRuntime) AddBounds(b vmath.AABB) { r.bounds.Add(b) }

// NumParticles returns the live count, from the delegate when GPU-backed
func (r *ComponentRuntime) NumParticles() int {
	if r.gpu != nil {
		return r.gpu.NumParticles()
	}
	if r.container == nil {
		return 0
	}
	return r.container.Count()
}

func (r *ComponentRuntime) HasParticles() bool { return r.NumParticles() > 0 }

func (r *ComponentRuntime) IsChild() bool { return r.parent != InvalidHandle }

func (r *ComponentRuntime) NumInstances() int { return r.instances.Len() }

func (r *ComponentRuntime) Instance(i int) particle.Instance { return r.instances.At(i) }

func (r *ComponentRuntime) ParentID(i int) particle.ID { return r.instances.ParentID(i) }

func (r *ComponentRuntime) Instances() *particle.InstanceTable { return r.instances }

func (r *ComponentRuntime) Container() *particle.Container { return r.container }

func (r *ComponentRuntime) FullRange() particle.Range { return r.container.FullRange() }

func (r *ComponentRuntime) SpawnedRange() particle.Range { return r.container.SpawnedRange() }

// DomainSize returns the element count of a data domain
func (r *ComponentRuntime) DomainSize(d particle.Domain) int {
	switch d {
	case particle.DomainParticle:
		return r.NumParticles()
	case particle.DomainSpawned:
		return r.SpawnedRange().Size()
	case particle.DomainInstance:
		return r.NumInstances()
	case particle.DomainParentParticle:
		return r.ParentContainer().Count()
	}
	return 0
}

// ParentRuntime resolves the parent through the emitter table, nil for roots
func (r *ComponentRuntime) ParentRuntime() *ComponentRuntime {
	if r.parent == InvalidHandle {
		return nil
	}
	return r.emitter.Runtime(r.parent)
}

// ParentContainer is a read-only view of the parent's particles; empty for roots and GPU parents
func (r *ComponentRuntime) ParentContainer() particle.View {
	p := r.ParentRuntime()
	if p == nil || p.gpu != nil {
		return particle.NewView(nil)
	}
	return particle.NewView(p.container)
}

// AccumStats adds this runtime's counters to s
func (r *ComponentRuntime) AccumStats(s *Stats) {
	s.Add(r.stats)
	s.Runtimes++
	if r.alive {
		s.AliveRuntimes++
	}
	s.Particles += int64(r.NumParticles())
	if r.instances != nil {
		s.Instances += int64(r.instances.Len())
	}
	if r.gpu != nil {
		s.GPURuntimes++
	}
}

// EmitterLocation is the transform root instances spawn from
func (r *ComponentRuntime) EmitterLocation() vmath.QuatTS { return r.emitter.Location() }

var _ effect.Runtime = (*ComponentRuntime)(nil)
