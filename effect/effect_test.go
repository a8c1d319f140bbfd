package effect_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/feature"
	"github.com/lixenwraith/pfx/particle"
)

func TestCompileOrdersParentsFirst(t *testing.T) {
	eff := effect.NewEffect("fireworks")
	eff.MustAdd(effect.ComponentConfig{Name: "sparkle", Parent: "spark"})
	eff.MustAdd(effect.ComponentConfig{Name: "spark", Parent: "shell"})
	eff.MustAdd(effect.ComponentConfig{Name: "smoke", Parent: "shell"})
	eff.MustAdd(effect.ComponentConfig{Name: "shell"})
	require.NoError(t, eff.Compile())
	require.True(t, eff.Compiled())

	var names []string
	for i, c := range eff.Components() {
		names = append(names, c.Name())
		assert.Equal(t, i, c.Index())
		if p := c.Parent(); p != nil {
			assert.Less(t, p.Index(), c.Index(), c.Name())
			assert.Equal(t, p.Depth()+1, c.Depth())
			assert.True(t, c.IsChild())
		}
	}
	assert.Equal(t, []string{"shell", "spark", "smoke", "sparkle"}, names)
	assert.Equal(t, 2, eff.MaxDepth())

	shell, ok := eff.Component("shell")
	require.True(t, ok)
	require.Len(t, shell.Children(), 2)
	assert.Equal(t, "spark", shell.Children()[0].Name())
	assert.Same(t, eff, shell.Effect())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(e *effect.Effect)
		want  error
	}{
		{"empty", func(*effect.Effect) {}, effect.ErrEmptyEffect},
		{"unknown parent", func(e *effect.Effect) {
			e.MustAdd(effect.ComponentConfig{Name: "a", Parent: "ghost"})
		}, effect.ErrUnknownParent},
		{"cycle", func(e *effect.Effect) {
			e.MustAdd(effect.ComponentConfig{Name: "root"})
			e.MustAdd(effect.ComponentConfig{Name: "a", Parent: "b"})
			e.MustAdd(effect.ComponentConfig{Name: "b", Parent: "a"})
		}, effect.ErrCycle},
		{"self parent", func(e *effect.Effect) {
			e.MustAdd(effect.ComponentConfig{Name: "a", Parent: "a"})
		}, effect.ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := effect.NewEffect(tt.name)
			tt.build(eff)
			err := eff.Compile()
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, eff.Compiled())
		})
	}
}

func TestAddErrors(t *testing.T) {
	eff := effect.NewEffect("e")
	_, err := eff.Add(effect.ComponentConfig{})
	assert.ErrorIs(t, err, effect.ErrUnnamedComponent)

	eff.MustAdd(effect.ComponentConfig{Name: "a"})
	_, err = eff.Add(effect.ComponentConfig{Name: "a"})
	assert.ErrorIs(t, err, effect.ErrDuplicateComponent)
	assert.Panics(t, func() { eff.MustAdd(effect.ComponentConfig{Name: "a"}) })

	require.NoError(t, eff.Compile())
	_, err = eff.Add(effect.ComponentConfig{Name: "b"})
	assert.ErrorIs(t, err, effect.ErrCompiled)
	assert.ErrorIs(t, eff.Compile(), effect.ErrCompiled)
}

func TestCompileGathersCapabilities(t *testing.T) {
	eff := effect.NewEffect("fountain")
	c := eff.MustAdd(effect.ComponentConfig{
		Name:    "water",
		Trigger: effect.TriggerManual,
		Features: []effect.Feature{
			&feature.SpawnCount{Count: 10, Period: 0.5},
			&feature.SpawnRate{Rate: 30},
			&feature.Lifetime{Min: 1, Max: 2},
			&feature.Location{},
			&feature.Velocity{MinSpeed: 1, MaxSpeed: 2},
			&feature.Motion{Gravity: mgl32.Vec3{0, -9.8, 0}},
			&feature.SizeOverLife{Start: 0.5, End: 0.1},
		},
	})
	require.NoError(t, eff.Compile())

	p := c.Params()
	assert.Equal(t, float32(2), p.MaxParticleLife)
	assert.Equal(t, float32(0.5), p.MaxParticleSize)
	assert.False(t, p.IsImmortal())
	assert.Equal(t, effect.TriggerManual, p.Trigger)
	assert.Equal(t, effect.MaxParticleCounts{Burst: 10, Rate: 30, BurstPeriod: 0.5}, p.Counts)
	assert.Len(t, c.Spawners(), 2)
	assert.Len(t, c.Initializers(), 4)
	assert.Len(t, c.Updaters(), 2)
	assert.Positive(t, p.InstanceDataStride)
	assert.Zero(t, p.InstanceDataStride%8)

	for _, dt := range []particle.DataType{particle.Position, particle.Velocity, particle.NormalAge, particle.ParentID, particle.Size} {
		assert.True(t, p.Schema.Has(dt), dt.String())
	}
	assert.Panics(t, func() { p.Schema.Use(particle.Alpha) }, "schema is frozen after compile")
}

func TestComponentSeedsAreStable(t *testing.T) {
	build := func() *effect.Effect {
		eff := effect.NewEffect("seeded")
		eff.MustAdd(effect.ComponentConfig{Name: "a"})
		eff.MustAdd(effect.ComponentConfig{Name: "b"})
		require.NoError(t, eff.Compile())
		return eff
	}
	x, y := build(), build()
	assert.Equal(t, x.Components()[0].Params().Seed, y.Components()[0].Params().Seed)
	assert.NotEqual(t, x.Components()[0].Params().Seed, x.Components()[1].Params().Seed)
}
