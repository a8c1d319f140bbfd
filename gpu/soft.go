package gpu

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/core"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/parameter"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/vmath"
)

// SoftDevice is a reference delegate that simulates on a goroutine per runtime
// Particles fly ballistically from their emit location and expire after the component's max life
type SoftDevice struct {
	log         *zap.Logger
	synchronous bool
	maxRuntimes int

	live atomic.Int32
}

// SoftOption configures a SoftDevice
type SoftOption func(*SoftDevice)

// WithSynchronous processes frames inline, making results visible as soon as UpdateFrame returns
func WithSynchronous() SoftOption {
	return func(d *SoftDevice) { d.synchronous = true }
}

// WithMaxRuntimes makes CreateRuntime fail past n live delegates
func WithMaxRuntimes(n int) SoftOption {
	return func(d *SoftDevice) { d.maxRuntimes = n }
}

// NewSoftDevice creates a software device
func NewSoftDevice(log *zap.Logger, opts ...SoftOption) *SoftDevice {
	if log == nil {
		log = zap.NewNop()
	}
	d := &SoftDevice{log: log}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Live returns the number of unreleased delegates
func (d *SoftDevice) Live() int { return int(d.live.Load()) }

func (d *SoftDevice) CreateRuntime(params *effect.ComponentParams) (Runtime, error) {
	if d.maxRuntimes > 0 && int(d.live.Load()) >= d.maxRuntimes {
		return nil, ErrUnsupported
	}
	d.live.Add(1)
	life := params.MaxParticleLife
	if life <= 0 {
		life = parameter.ParticleLifetime
	}
	r := &softRuntime{
		dev:   d,
		life:  life,
		size:  max(params.MaxParticleSize, parameter.ParticleSize),
		chaos: vmath.NewChaosKey(params.Seed),
		done:  make(chan struct{}),
	}
	r.snap.Store(&snapshot{bounds: vmath.EmptyAABB()})
	if !d.synchronous {
		r.frames = make(chan FrameData, parameter.SoftDeviceQueue)
		r.wg.Add(1)
		core.Go(r.loop)
	}
	return r, nil
}

type softParticle struct {
	pos, vel mgl32.Vec3
	age      float32
}

type snapshot struct {
	count   int
	removed int64
	bounds  vmath.AABB
}

type softRuntime struct {
	dev   *SoftDevice
	life  float32
	size  float32
	chaos vmath.ChaosKey

	particles []softParticle
	removed   int64
	snap      atomic.Pointer[snapshot]

	frames   chan FrameData
	done     chan struct{}
	wg       sync.WaitGroup
	released atomic.Bool
	dropped  atomic.Int64
}

func (r *softRuntime) UpdateFrame(frame FrameData) {
	if r.released.Load() {
		return
	}
	if r.frames == nil {
		r.step(frame)
		return
	}
	if frame.Clear {
		select {
		case r.frames <- frame:
		case <-r.done:
		}
		return
	}
	select {
	case r.frames <- frame:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.dev.log.Warn("soft gpu frame dropped", zap.Int64("dropped", n))
		}
	}
}

func (r *softRuntime) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case f := <-r.frames:
			r.step(f)
		}
	}
}

func (r *softRuntime) step(f FrameData) {
	if f.Clear {
		r.removed += int64(len(r.particles))
		r.particles = r.particles[:0]
	}
	dt := f.DeltaTime
	w := 0
	for _, p := range r.particles {
		p.age += dt
		if p.age >= r.life {
			r.removed++
			continue
		}
		p.vel = p.vel.Add(mgl32.Vec3{0, -parameter.ParticleGravity, 0}.Mul(dt))
		p.pos = p.pos.Add(p.vel.Mul(dt))
		r.particles[w] = p
		w++
	}
	r.particles = r.particles[:w]

	for _, s := range f.Spawns {
		for i := 0; i < s.Count; i++ {
			speed := r.chaos.RandRange(parameter.ParticleMinSpeed, parameter.ParticleMaxSpeed)
			r.particles = append(r.particles, softParticle{
				pos: s.Location.T,
				vel: s.Location.ApplyVector(r.chaos.RandSphere()).Mul(speed),
				age: max(0, dt-s.Delay),
			})
		}
	}

	b := vmath.EmptyAABB()
	for _, p := range r.particles {
		b.AddSphere(p.pos, r.size)
	}
	r.snap.Store(&snapshot{count: len(r.particles), removed: r.removed, bounds: b})
}

func (r *softRuntime) Bounds() vmath.AABB { return r.snap.Load().bounds }

func (r *softRuntime) NumParticles() int { return r.snap.Load().count }

func (r *softRuntime) Removed() int64 { return r.snap.Load().removed }

func (r *softRuntime) Render(re *render.Element) {
	s := r.snap.Load()
	re.Draw = &render.GPUDraw{Count: s.count, Bounds: [2]mgl32.Vec3{s.bounds.Min, s.bounds.Max}}
}

func (r *softRuntime) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	if r.frames != nil {
		close(r.done)
		r.wg.Wait()
	}
	r.dev.live.Add(-1)
}
