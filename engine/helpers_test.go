package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/feature"
	"github.com/lixenwraith/pfx/vmath"
)

// Power-of-two step keeps normalized ages exact
const testDT = 0.0625

func newTestSystem(t *testing.T, opts ...Option) *ParticleSystem {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	cfg.StabilityCheck = true
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	sys := NewParticleSystem(cfg, opts...)
	t.Cleanup(sys.Close)
	return sys
}

func burstEffect(t *testing.T, count int, life float32) *effect.Effect {
	t.Helper()
	eff := effect.NewEffect("burst")
	eff.MustAdd(effect.ComponentConfig{
		Name: "burst",
		Features: []effect.Feature{
			&feature.SpawnCount{Count: count},
			&feature.Lifetime{Min: life, Max: life},
			&feature.Location{},
		},
	})
	require.NoError(t, eff.Compile())
	return eff
}

// rocketEffect has three long-lived parents, each triggering two sparks
func rocketEffect(t *testing.T) *effect.Effect {
	t.Helper()
	eff := effect.NewEffect("rocket")
	eff.MustAdd(effect.ComponentConfig{
		Name:   "spark",
		Parent: "rocket",
		Features: []effect.Feature{
			&feature.SpawnCount{Count: 2},
			&feature.Lifetime{Min: 4, Max: 4},
			&feature.Location{},
		},
	})
	eff.MustAdd(effect.ComponentConfig{
		Name: "rocket",
		Features: []effect.Feature{
			&feature.SpawnCount{Count: 3},
			&feature.Lifetime{Min: 4, Max: 4},
			&feature.Location{Radius: 2},
		},
	})
	require.NoError(t, eff.Compile())
	return eff
}

func at(x, y, z float32) vmath.QuatTS {
	return vmath.NewQuatTS(mgl32.Vec3{x, y, z})
}
