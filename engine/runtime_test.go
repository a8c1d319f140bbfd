package engine

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/feature"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/vmath"
)

func TestBurstDiesOneFrameAfterLifetime(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(burstEffect(t, 100, testDT), at(1, 2, 3))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sys.Update(ctx, testDT))
	rt := e.RuntimeFor("burst")
	require.Equal(t, 100, rt.NumParticles(), "aged-out particles stay until the next remove pass")
	for id := 0; id < 100; id++ {
		assert.True(t, rt.Container().IsDead(particle.ID(id)))
	}
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, rt.Container().Vec3(particle.Position)[0])

	require.NoError(t, sys.Update(ctx, testDT))
	assert.Equal(t, 0, rt.NumParticles())

	st := sys.Stats()
	assert.EqualValues(t, 100, st.Spawned)
	assert.EqualValues(t, 100, st.Removed)
}

func TestSeededRuntimesShareChaos(t *testing.T) {
	sys := newTestSystem(t)
	eff := burstEffect(t, 4, 1)
	a, err := sys.CreateSeededEmitter(eff, at(0, 0, 0), 7)
	require.NoError(t, err)
	b, err := sys.CreateSeededEmitter(eff, at(0, 0, 0), 7)
	require.NoError(t, err)
	c, err := sys.CreateSeededEmitter(eff, at(0, 0, 0), 8)
	require.NoError(t, err)

	ka, kb, kc := a.RuntimeFor("burst").Chaos(), b.RuntimeFor("burst").Chaos(), c.RuntimeFor("burst").Chaos()
	va, vb, vc := ka.Next(), kb.Next(), kc.Next()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)
}

func TestSpawnBeforeFirstUpdate(t *testing.T) {
	sys := newTestSystem(t)
	eff := effect.NewEffect("direct")
	eff.MustAdd(effect.ComponentConfig{
		Name:     "shot",
		Features: []effect.Feature{&feature.Lifetime{Min: testDT, Max: testDT}, &feature.Location{}},
	})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, at(0, 0, 0))
	require.NoError(t, err)
	rt := e.RuntimeFor("shot")
	require.Equal(t, 1, rt.NumInstances(), "root instance is committed at initialization")

	rng := rt.AddParticles([]particle.SpawnEntry{{Instance: 0, Count: 100}})
	assert.Equal(t, particle.NewRange(0, 100), rng)
	assert.Equal(t, 100, rt.NumParticles())

	ctx := context.Background()
	require.NoError(t, sys.Update(ctx, testDT))
	assert.Equal(t, 100, rt.NumParticles())
	require.NoError(t, sys.Update(ctx, testDT))
	assert.Zero(t, rt.NumParticles())
}

func TestCountTracksSpawnedMinusRemoved(t *testing.T) {
	sys := newTestSystem(t)
	eff := effect.NewEffect("stream")
	eff.MustAdd(effect.ComponentConfig{
		Name: "stream",
		Features: []effect.Feature{
			&feature.SpawnRate{Rate: 64},
			&feature.Lifetime{Min: 0.125, Max: 0.5},
			&feature.Location{Radius: 1},
			&feature.Velocity{Direction: mgl32.Vec3{0, 1, 0}, Spread: 1, MinSpeed: 1, MaxSpeed: 2},
		},
	})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		require.NoError(t, sys.Update(context.Background(), testDT))
		st := sys.Stats()
		require.EqualValues(t, st.Spawned-st.Removed, e.NumParticles(), "frame %d", i)
	}
	assert.Positive(t, e.NumParticles())
}

func TestChildEmitsFromParentParticle(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(rocketEffect(t), at(5, 0, 0))
	require.NoError(t, err)

	rocket, spark := e.RuntimeFor("rocket"), e.RuntimeFor("spark")
	require.False(t, rocket.IsChild())
	require.True(t, spark.IsChild())
	assert.Equal(t, [][]RuntimeHandle{{rocket.Handle()}, {spark.Handle()}}, e.Levels())

	require.NoError(t, sys.Update(context.Background(), testDT))
	require.Equal(t, 3, rocket.NumParticles())
	require.Equal(t, 3, spark.NumInstances())
	require.Equal(t, 6, spark.NumParticles())

	parentPos := rocket.Container().Vec3(particle.Position)
	parents := spark.Container().IDs(particle.ParentID)
	for i, p := range spark.Container().Vec3(particle.Position) {
		require.Less(t, int(parents[i]), len(parentPos))
		assert.True(t, p.ApproxEqual(parentPos[parents[i]]), "spark %d at %v, parent at %v", i, p, parentPos[parents[i]])
	}
}

func TestParentRemovalReparentsChildren(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(rocketEffect(t), at(0, 0, 0))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, sys.Update(ctx, testDT))

	rocket, spark := e.RuntimeFor("rocket"), e.RuntimeFor("spark")
	rocket.Container().MarkDead(1)
	survivors := []mgl32.Vec3{
		rocket.Container().Vec3(particle.Position)[0],
		rocket.Container().Vec3(particle.Position)[2],
	}

	require.NoError(t, sys.Update(ctx, testDT))
	require.Equal(t, 2, rocket.NumParticles())
	assert.Equal(t, survivors, rocket.Container().Vec3(particle.Position))
	assert.Equal(t, 2, spark.NumInstances(), "instance of the removed parent is dropped")
	for i := 0; i < spark.NumInstances(); i++ {
		assert.Less(t, int(spark.ParentID(i)), 2)
	}

	orphans := 0
	parentPos := rocket.Container().Vec3(particle.Position)
	for i, p := range spark.Container().IDs(particle.ParentID) {
		if p == particle.InvalidID {
			orphans++
			continue
		}
		assert.True(t, spark.Container().Vec3(particle.Position)[i].ApproxEqual(parentPos[p]))
	}
	assert.Equal(t, 2, orphans, "particles keep living with an invalid parent")
	assert.Equal(t, 6, spark.NumParticles())
}

func TestKillOnParentDeathRemovesOrphans(t *testing.T) {
	sys := newTestSystem(t)
	eff := effect.NewEffect("trail")
	eff.MustAdd(effect.ComponentConfig{
		Name:     "head",
		Features: []effect.Feature{&feature.SpawnCount{Count: 2}, &feature.Lifetime{Min: 4, Max: 4}},
	})
	eff.MustAdd(effect.ComponentConfig{
		Name:   "tail",
		Parent: "head",
		Features: []effect.Feature{
			&feature.SpawnPerFrame{Count: 1},
			&feature.Lifetime{Min: 4, Max: 4},
			feature.KillOnParentDeath{},
		},
	})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sys.Update(ctx, testDT))
	head, tail := e.RuntimeFor("head"), e.RuntimeFor("tail")
	require.Equal(t, 2, tail.NumParticles())

	head.Container().MarkDead(0)
	require.NoError(t, sys.Update(ctx, testDT))
	// Reparented this frame, marked by the updater, gone on the next remove pass
	require.NoError(t, sys.Update(ctx, testDT))
	for _, p := range tail.Container().IDs(particle.ParentID) {
		assert.Equal(t, particle.ID(0), p)
	}
	assert.Equal(t, 1, tail.NumInstances())
}

func TestAddBoundsUnions(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(burstEffect(t, 1, 1), at(0, 0, 0))
	require.NoError(t, err)
	require.NoError(t, sys.Update(context.Background(), testDT))

	rt := e.RuntimeFor("burst")
	require.False(t, rt.Bounds().IsEmpty())
	extra := vmath.NewAABB(mgl32.Vec3{10, 10, 10}, mgl32.Vec3{11, 11, 11})
	rt.AddBounds(extra)

	b := rt.Bounds()
	assert.True(t, b.Contains(extra))
	assert.True(t, b.ContainsPoint(mgl32.Vec3{0, 0, 0}))

	rt.AddBounds(vmath.EmptyAABB())
	assert.Equal(t, b, rt.Bounds())
}

func TestEmitterBoundsCoverRuntimes(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(rocketEffect(t), at(3, 3, 3))
	require.NoError(t, err)
	require.NoError(t, sys.Update(context.Background(), testDT))

	b := e.Bounds()
	for _, rt := range e.Runtimes() {
		assert.True(t, b.Contains(rt.Bounds()), rt.Component().Name())
	}
}

func TestStabilityCheckRemovesNonFinite(t *testing.T) {
	sys := newTestSystem(t)
	eff := effect.NewEffect("unstable")
	eff.MustAdd(effect.ComponentConfig{
		Name: "unstable",
		Features: []effect.Feature{
			&feature.SpawnCount{Count: 4},
			&feature.Lifetime{Min: 1, Max: 1},
			effect.InitFunc{Label: "poison", Fn: func(rt effect.Runtime, r particle.Range) {
				pos := rt.Container().Vec3(particle.Position)
				pos[r.Start][0] = float32(math.NaN())
			}},
		},
	})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, vmath.IdentityQuatTS())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sys.Update(ctx, testDT))
	rt := e.RuntimeFor("unstable")
	assert.True(t, rt.Container().IsDead(0))
	assert.False(t, rt.Bounds().IsEmpty(), "non-finite positions are skipped, not propagated")

	require.NoError(t, sys.Update(ctx, testDT))
	assert.Equal(t, 3, rt.NumParticles())
	assert.EqualValues(t, 1, sys.Stats().Unstable)
}

func TestAddParticlesRejectsUnknownInstance(t *testing.T) {
	sys := newTestSystem(t)
	e, err := sys.CreateEmitter(burstEffect(t, 1, 1), at(0, 0, 0))
	require.NoError(t, err)
	rt := e.RuntimeFor("burst")

	assert.PanicsWithError(t, "pfx precondition failed in ComponentRuntime.AddParticles: instance 7 out of 1", func() {
		rt.AddParticles([]particle.SpawnEntry{{Instance: 7, Count: 1}})
	})
}

func TestManualEmit(t *testing.T) {
	sys := newTestSystem(t)
	eff := effect.NewEffect("manual")
	eff.MustAdd(effect.ComponentConfig{
		Name:     "shot",
		Features: []effect.Feature{&feature.Lifetime{Min: 1, Max: 1}, &feature.Location{}},
	})
	require.NoError(t, eff.Compile())
	e, err := sys.CreateEmitter(eff, at(0, 1, 0))
	require.NoError(t, err)

	assert.False(t, e.EmitParticle("missing"))
	require.True(t, e.EmitParticle("shot"))
	require.True(t, e.EmitParticle("shot"))
	require.NoError(t, sys.Update(context.Background(), testDT))
	assert.Equal(t, 2, e.NumParticles())
}
