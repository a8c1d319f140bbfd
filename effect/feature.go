package effect

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/vmath"
)

// Runtime is the view of a component runtime handed to features
type Runtime interface {
	Component() *Component
	Params() *ComponentParams
	Container() *particle.Container
	Instances() *particle.InstanceTable
	ParentContainer() particle.View
	Chaos() *vmath.ChaosKey
	ChaosV() *vmath.ChaosKeyV
	DeltaTime() float32
	FullRange() particle.Range
	SpawnedRange() particle.Range
	EmitLocations(locs []vmath.QuatTS, firstInstance int)
	SpawnLocation(id particle.ID) vmath.QuatTS
	EmitterLocation() vmath.QuatTS
	IsPreRunning() bool
	Audio() audio.System
	Logger() *zap.Logger
}

// Feature is one pluggable behavior of a component
// Capabilities are discovered through the optional interfaces below
// Features keep their declared offsets, so one value must not be shared by two components
type Feature interface {
	Name() string
}

// DataDeclarer adds the particle columns a feature reads or writes
type DataDeclarer interface {
	DeclareData(s *particle.Schema)
}

// InstanceDeclarer reserves per-instance state in the instance blob
type InstanceDeclarer interface {
	DeclareInstanceData(l *particle.InstanceLayout)
}

// CountReporter contributes to the max-particle estimate
type CountReporter interface {
	AddMaxParticleCounts(c *MaxParticleCounts)
}

// LifetimeReporter declares the longest particle life it can produce, 0 for immortal
type LifetimeReporter interface {
	MaxParticleLife() float32
}

// SizeReporter declares the largest particle radius, used to pad bounds
type SizeReporter interface {
	MaxParticleSize() float32
}

// InstanceInitializer sets up blob state for instances [first, last)
type InstanceInitializer interface {
	InitInstances(rt Runtime, first, last int)
}

// Spawner appends this frame's spawn requests
type Spawner interface {
	Spawn(rt Runtime, out []particle.SpawnEntry) []particle.SpawnEntry
}

// Initializer runs once over the spawned range
type Initializer interface {
	InitParticles(rt Runtime, r particle.Range)
}

// Updater runs every frame over the full range
// It may mark particles dead but must not add or remove them
type Updater interface {
	UpdateParticles(rt Runtime, r particle.Range, dt float32)
}

// UpdateFunc adapts a plain callable to an updating feature
type UpdateFunc struct {
	Label string
	Fn    func(rt Runtime, r particle.Range, dt float32)
}

func (f UpdateFunc) Name() string { return f.Label }

func (f UpdateFunc) UpdateParticles(rt Runtime, r particle.Range, dt float32) {
	f.Fn(rt, r, dt)
}

// InitFunc adapts a plain callable to an initializing feature
type InitFunc struct {
	Label string
	Fn    func(rt Runtime, r particle.Range)
}

func (f InitFunc) Name() string { return f.Label }

func (f InitFunc) InitParticles(rt Runtime, r particle.Range) {
	f.Fn(rt, r)
}
