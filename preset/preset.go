// Package preset holds the stock effects used by the sandbox and the benchmark
package preset

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/feature"
	"github.com/lixenwraith/pfx/parameter"
)

// ErrUnknownPreset is returned by Build for names not in Names
var ErrUnknownPreset = errors.New("unknown preset")

// Palette is a hot-to-cold color ramp in packed 0xRRGGBBAA
type Palette struct {
	Name      string
	Hot, Cold uint32
}

var Palettes = []Palette{
	{Name: "solar", Hot: 0xfffffaff, Cold: 0xdc642800},
	{Name: "lava", Hot: 0xfffff0ff, Cold: 0xc83c1900},
	{Name: "frost", Hot: 0xe6f5ffff, Cold: 0x2850a000},
}

// Options tune a preset
type Options struct {
	Palette Palette
	GPU     bool
	Sound   bool
}

type builder func(Options) (*effect.Effect, error)

var builders = map[string]builder{
	"fireworks": fireworks,
	"fountain":  fountain,
	"smoke":     smoke,
	"comet":     comet,
}

// Names lists the presets in stable order
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Build compiles a fresh effect; features are per effect and never shared
func Build(name string, opts Options) (*effect.Effect, error) {
	b, ok := builders[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPreset, "%q", name)
	}
	if opts.Palette.Name == "" {
		opts.Palette = Palettes[0]
	}
	eff, err := b(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "preset %q", name)
	}
	if err := eff.Compile(); err != nil {
		return nil, errors.Wrapf(err, "compile preset %q", name)
	}
	return eff, nil
}

func gravity() mgl32.Vec3 { return mgl32.Vec3{0, -parameter.ParticleGravity, 0} }

// fireworks: shells rise and burst into sparks, each spark crackling
func fireworks(o Options) (*effect.Effect, error) {
	eff := effect.NewEffect("fireworks")
	shell := []effect.Feature{
		&feature.SpawnCount{Count: 1, Period: 0.8},
		&feature.Lifetime{Min: 1.2, Max: 1.6},
		&feature.Location{Radius: 1},
		&feature.Velocity{Direction: mgl32.Vec3{0, 1, 0}, Spread: 0.15, MinSpeed: 8, MaxSpeed: 11},
		&feature.Motion{Gravity: gravity(), Drag: parameter.ParticleDrag},
		&feature.ColorOverLife{From: 0xffffffff, To: o.Palette.Hot},
	}
	if _, err := eff.Add(effect.ComponentConfig{Name: "shell", Features: shell}); err != nil {
		return nil, err
	}

	spark := []effect.Feature{
		&feature.SpawnCount{Count: 24},
		&feature.Lifetime{Min: 0.6, Max: 1.2},
		&feature.Location{},
		&feature.Velocity{Spread: 1, MinSpeed: parameter.ParticleMinSpeed, MaxSpeed: parameter.ParticleMaxSpeed},
		&feature.Motion{Gravity: gravity().Mul(0.3), Drag: 1.5},
		&feature.SizeOverLife{Start: parameter.ParticleSize * 2, End: 0},
		&feature.ColorOverLife{From: o.Palette.Hot, To: o.Palette.Cold},
	}
	if o.Sound {
		spark = append(spark, &feature.Sound{Trigger: "spark"})
	}
	// Sparks burst when the shell is nearly spent and outlive it
	_, err := eff.Add(effect.ComponentConfig{Name: "spark", Parent: "shell", TriggerDelay: 1.1, Features: spark})
	return eff, err
}

// fountain: a steady upward stream
func fountain(o Options) (*effect.Effect, error) {
	eff := effect.NewEffect("fountain")
	_, err := eff.Add(effect.ComponentConfig{
		Name: "water",
		GPU:  o.GPU,
		Features: []effect.Feature{
			&feature.SpawnRate{Rate: 120},
			&feature.Lifetime{Min: 1, Max: parameter.ParticleLifetime},
			&feature.Location{Radius: 0.2},
			&feature.Velocity{Direction: mgl32.Vec3{0, 1, 0}, Spread: 0.2, MinSpeed: 6, MaxSpeed: 8},
			&feature.Motion{Gravity: gravity()},
			&feature.ColorOverLife{From: o.Palette.Hot, To: o.Palette.Cold},
		},
	})
	return eff, err
}

// smoke: slow, spinning and warmed up so it appears already billowing
func smoke(o Options) (*effect.Effect, error) {
	eff := effect.NewEffect("smoke")
	eff.SetPreRun(2)
	_, err := eff.Add(effect.ComponentConfig{
		Name: "puff",
		GPU:  o.GPU,
		Features: []effect.Feature{
			&feature.SpawnRate{Rate: 20},
			&feature.Lifetime{Min: 2, Max: 3},
			&feature.Location{Radius: 0.5},
			&feature.Velocity{Direction: mgl32.Vec3{0, 1, 0}, Spread: 0.4, MinSpeed: 0.5, MaxSpeed: 1.5},
			&feature.Motion{Drag: parameter.ParticleDrag},
			&feature.Spin{Speed: 1},
			&feature.SizeOverLife{Start: 0.2, End: 0.8},
			&feature.ColorOverLife{From: 0x909090ff, To: 0x40404000},
		},
	})
	return eff, err
}

// comet: a head leaving a trail; the trail dies with its head
func comet(o Options) (*effect.Effect, error) {
	eff := effect.NewEffect("comet")
	if _, err := eff.Add(effect.ComponentConfig{
		Name: "head",
		Features: []effect.Feature{
			&feature.SpawnCount{Count: 3, Period: 1.5},
			&feature.Lifetime{Min: 2.5, Max: 3},
			&feature.Velocity{Spread: 0.6, Direction: mgl32.Vec3{1, 0.3, 0}, MinSpeed: 4, MaxSpeed: 7},
			&feature.Motion{},
		},
	}); err != nil {
		return nil, err
	}
	_, err := eff.Add(effect.ComponentConfig{
		Name:   "tail",
		Parent: "head",
		Features: []effect.Feature{
			&feature.SpawnRate{Rate: 30},
			&feature.Lifetime{Min: 0.3, Max: 0.6},
			&feature.Location{Radius: 0.1},
			&feature.ColorOverLife{From: o.Palette.Hot, To: o.Palette.Cold},
			feature.KillOnParentDeath{},
		},
	})
	return eff, err
}
