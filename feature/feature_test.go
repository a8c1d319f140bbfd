package feature_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/engine"
	"github.com/lixenwraith/pfx/feature"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/vmath"
)

const dt = 0.0625

func newSystem(t *testing.T, opts ...engine.Option) *engine.ParticleSystem {
	t.Helper()
	opts = append([]engine.Option{engine.WithLogger(zaptest.NewLogger(t))}, opts...)
	sys := engine.NewParticleSystem(config.Default(), opts...)
	t.Cleanup(sys.Close)
	return sys
}

// single compiles a one-component effect and places it at the origin
func single(t *testing.T, sys *engine.ParticleSystem, features ...effect.Feature) *engine.ComponentRuntime {
	t.Helper()
	eff := effect.NewEffect("test")
	eff.MustAdd(effect.ComponentConfig{Name: "c", Features: features})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)
	return e.RuntimeFor("c")
}

func step(t *testing.T, sys *engine.ParticleSystem, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		require.NoError(t, sys.Update(context.Background(), dt))
	}
}

func TestSpawnCountRepeats(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnCount{Count: 2, Period: 0.125, Repeat: 3})

	counts := make([]int, 0, 8)
	for i := 0; i < 8; i++ {
		step(t, sys, 1)
		counts = append(counts, rt.NumParticles())
	}
	assert.Equal(t, []int{2, 2, 4, 4, 6, 6, 6, 6}, counts)
}

func TestSpawnRateForDuration(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnRate{Rate: 32, Duration: 0.25}, &feature.Lifetime{Min: 1, Max: 1})

	step(t, sys, 1)
	require.Equal(t, 2, rt.NumParticles())
	age := rt.Container().Float(particle.NormalAge)
	assert.InDelta(t, 0.03125, age[0], 1e-6, "older particle was born half way through the frame")
	assert.InDelta(t, 0, age[1], 1e-6, "newest particle was born at frame end")

	step(t, sys, 5)
	assert.Equal(t, 8, rt.NumParticles())
}

func TestSpawnedAgeIsTimeSinceBirth(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnRate{Rate: 1}, &feature.Lifetime{Min: 1, Max: 1})

	rt.UpdateAll(0.75)
	require.Zero(t, rt.NumParticles())

	// Born at 1.0s, the frame ends at 1.5s
	rt.UpdateAll(0.75)
	require.Equal(t, 1, rt.NumParticles())
	age := rt.Container().Float(particle.NormalAge)
	assert.InDelta(t, 0.5, age[0], 1e-6)
	assert.False(t, rt.Container().IsDead(0))

	// Born at 2.0s; the first one has now lived 1.25s
	rt.UpdateAll(0.75)
	require.Equal(t, 2, rt.NumParticles())
	age = rt.Container().Float(particle.NormalAge)
	assert.InDelta(t, 1.25, age[0], 1e-6)
	assert.True(t, rt.Container().IsDead(0))
	assert.InDelta(t, 0.25, age[1], 1e-6)
	assert.False(t, rt.Container().IsDead(1))
}

func TestRepeatedBurstAgesFromPeriodCrossing(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnCount{Count: 1, Period: 0.1}, &feature.Lifetime{Min: 1, Max: 1})

	step(t, sys, 3)
	require.Equal(t, 2, rt.NumParticles())
	age := rt.Container().Float(particle.NormalAge)
	assert.InDelta(t, 0.1875, age[0], 1e-6, "first burst fires at frame start")
	assert.InDelta(t, 0.025, age[1], 1e-5, "second burst fired when the period elapsed at 0.1s")
}

func TestSpawnPerFrame(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnPerFrame{Count: 3})
	step(t, sys, 4)
	assert.Equal(t, 12, rt.NumParticles())
}

func TestLifetimeRange(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnCount{Count: 64}, &feature.Lifetime{Min: 0.5, Max: 1})
	step(t, sys, 1)
	for _, inv := range rt.Container().Float(particle.InvLifetime) {
		assert.GreaterOrEqual(t, inv, float32(1))
		assert.LessOrEqual(t, inv, float32(2))
	}
}

func TestImmortalParticlesNeverAge(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys, &feature.SpawnCount{Count: 4}, &feature.Lifetime{})
	step(t, sys, 100)
	assert.Equal(t, 4, rt.NumParticles())
	for _, a := range rt.Container().Float(particle.NormalAge) {
		assert.Zero(t, a)
	}
}

func TestVelocityAndMotion(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys,
		&feature.SpawnCount{Count: 5},
		&feature.Velocity{Direction: mgl32.Vec3{1, 0, 0}, MinSpeed: 2, MaxSpeed: 2},
		&feature.Motion{},
	)
	step(t, sys, 1)
	for _, v := range rt.Container().Vec3(particle.Velocity) {
		assert.True(t, v.ApproxEqual(mgl32.Vec3{2, 0, 0}), "%v", v)
	}
	for _, p := range rt.Container().Vec3(particle.Position) {
		assert.True(t, p.ApproxEqual(mgl32.Vec3{0.125, 0, 0}), "%v", p)
	}
}

func TestMotionGravityAndDrag(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys,
		&feature.SpawnCount{Count: 1},
		&feature.Motion{Gravity: mgl32.Vec3{0, -8, 0}, Drag: 2},
	)
	step(t, sys, 1)
	v := rt.Container().Vec3(particle.Velocity)[0]
	// (0 - 8*dt) * (1 - 2*dt)
	assert.InDelta(t, -0.4375, v.Y(), 1e-6)
}

func TestLocationScattersInsideRadius(t *testing.T) {
	sys := newSystem(t)
	eff := effect.NewEffect("scatter")
	eff.MustAdd(effect.ComponentConfig{Name: "c", Features: []effect.Feature{
		&feature.SpawnCount{Count: 200},
		&feature.Location{Offset: mgl32.Vec3{0, 1, 0}, Radius: 0.5},
	}})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.NewQuatTS(mgl32.Vec3{10, 0, 0}))
	require.NoError(t, err)
	step(t, sys, 1)

	center := mgl32.Vec3{10, 1, 0}
	for _, p := range e.RuntimeFor("c").Container().Vec3(particle.Position) {
		assert.LessOrEqual(t, p.Sub(center).Len(), float32(0.5001))
	}
}

func TestSizeAndColorOverLife(t *testing.T) {
	sys := newSystem(t)
	rt := single(t, sys,
		&feature.SpawnCount{Count: 1},
		&feature.Lifetime{Min: 1, Max: 1},
		&feature.SizeOverLife{Start: 1, End: 0},
		&feature.ColorOverLife{From: 0xff0000ff, To: 0x0000ff00},
	)
	step(t, sys, 1)
	c := rt.Container()
	assert.InDelta(t, 0.9375, c.Float(particle.Size)[0], 1e-6, "size is sampled after aging")

	step(t, sys, 7)
	assert.InDelta(t, 0.5, c.Float(particle.Size)[0], 1e-6)
	assert.Equal(t, uint32(0x80008080), c.Uint32(particle.Color)[0])
	assert.InDelta(t, 128.0/255, c.Float(particle.Alpha)[0], 1e-6)
}

func TestLerpRGBA(t *testing.T) {
	assert.Equal(t, uint32(0x000000ff), feature.LerpRGBA(0x000000ff, 0xffffff00, 0))
	assert.Equal(t, uint32(0xffffff00), feature.LerpRGBA(0x000000ff, 0xffffff00, 1))
	assert.Equal(t, uint32(0x80808080), feature.LerpRGBA(0x000000ff, 0xffffff00, 0.5))
	assert.Equal(t, uint32(0xffffff00), feature.LerpRGBA(0x000000ff, 0xffffff00, 3))
}

func TestSpinAccumulatesAngle(t *testing.T) {
	sys := newSystem(t)
	spin := &feature.Spin{Speed: 2}
	rt := single(t, sys, &feature.SpawnCount{Count: 2}, spin)
	step(t, sys, 4)

	c := rt.Container()
	require.True(t, c.Has(spin.Angle()))
	for _, a := range c.Float(spin.Angle()) {
		assert.InDelta(t, 0.5, a, 1e-6)
	}
	want := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1})
	assert.True(t, c.Quat(particle.Orientation)[0].ApproxEqualThreshold(want, 1e-5))
}

func TestTriggerDelayHoldsChildSpawn(t *testing.T) {
	sys := newSystem(t)
	eff := effect.NewEffect("delayed")
	eff.MustAdd(effect.ComponentConfig{Name: "p", Features: []effect.Feature{
		&feature.SpawnCount{Count: 1}, &feature.Lifetime{Min: 4, Max: 4},
	}})
	eff.MustAdd(effect.ComponentConfig{Name: "c", Parent: "p", TriggerDelay: 0.125, Features: []effect.Feature{
		&feature.SpawnCount{Count: 1},
	}})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)

	step(t, sys, 1)
	assert.Equal(t, 1, e.RuntimeFor("c").NumInstances())
	assert.Equal(t, 0, e.RuntimeFor("c").NumParticles())
	step(t, sys, 1)
	assert.Equal(t, 1, e.RuntimeFor("c").NumParticles())
}

func TestSeededEmittersAreReproducible(t *testing.T) {
	build := func() *effect.Effect {
		eff := effect.NewEffect("repro")
		eff.MustAdd(effect.ComponentConfig{Name: "c", Features: []effect.Feature{
			&feature.SpawnRate{Rate: 100},
			&feature.Lifetime{Min: 0.2, Max: 0.6},
			&feature.Location{Radius: 1},
			&feature.Velocity{Spread: 1, MinSpeed: 1, MaxSpeed: 3},
			&feature.Motion{Gravity: mgl32.Vec3{0, -9.8, 0}},
		}})
		require.NoError(t, eff.Compile())
		return eff
	}
	run := func() []mgl32.Vec3 {
		sys := newSystem(t)
		e, err := sys.CreateSeededEmitter(build(), vmath.IdentityQuatTS(), 42)
		require.NoError(t, err)
		step(t, sys, 20)
		return append([]mgl32.Vec3(nil), e.RuntimeFor("c").Container().Vec3(particle.Position)...)
	}
	a, b := run(), run()
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

type recordingAudio struct {
	mu         sync.Mutex
	registered map[string]audio.Sound
	executed   int
}

func (r *recordingAudio) RegisterTrigger(name string, s audio.Sound) audio.TriggerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered == nil {
		r.registered = make(map[string]audio.Sound)
	}
	r.registered[name] = s
	return audio.TriggerID(len(r.registered))
}

func (r *recordingAudio) ExecuteTrigger(audio.TriggerID) (audio.InstanceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed++
	return audio.InstanceID(r.executed), nil
}

func (r *recordingAudio) StopAll()                    {}
func (r *recordingAudio) OnReport(func(audio.Report)) {}

func TestSoundPlaysOnSpawnNotDuringPreRun(t *testing.T) {
	rec := &recordingAudio{}
	sys := newSystem(t, engine.WithAudio(rec))

	eff := effect.NewEffect("crackle")
	eff.MustAdd(effect.ComponentConfig{Name: "spark", Features: []effect.Feature{
		&feature.SpawnCount{Count: 3, Period: 0.125},
		&feature.Sound{},
	}})
	eff.SetPreRun(0.25)
	require.NoError(t, eff.Compile())
	_, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)

	rec.mu.Lock()
	require.Contains(t, rec.registered, "spark")
	assert.Equal(t, feature.SparkSound, rec.registered["spark"])
	assert.Zero(t, rec.executed, "warm-up is silent")
	rec.mu.Unlock()

	step(t, sys, 4)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.executed)
}
