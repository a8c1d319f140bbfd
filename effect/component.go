package effect

import (
	"github.com/lixenwraith/pfx/particle"
)

// Trigger selects how a child component receives instances
type Trigger uint8

const (
	// TriggerOnSpawn binds one instance to every newly spawned parent particle
	TriggerOnSpawn Trigger = iota
	// TriggerManual leaves instancing to the caller through AddInstances
	TriggerManual
)

// ComponentParams is the frame-independent configuration shared read-only by every runtime of a component
type ComponentParams struct {
	Schema             *particle.Schema
	Layout             *particle.InstanceLayout
	InstanceDataStride int
	MaxParticleLife    float32
	MaxParticleSize    float32
	Counts             MaxParticleCounts
	Seed               uint64
	UseGPU             bool
	Trigger            Trigger
	TriggerDelay       float32
}

// IsImmortal reports whether particles never age out
func (p *ComponentParams) IsImmortal() bool { return p.MaxParticleLife <= 0 }

// ComponentConfig describes a component before compilation
type ComponentConfig struct {
	Name         string
	Parent       string
	GPU          bool
	Trigger      Trigger
	TriggerDelay float32
	Disabled     bool
	Features     []Feature
}

// Component is one stage of an effect graph
type Component struct {
	cfg      ComponentConfig
	effect   *Effect
	parent   *Component
	children []*Component
	index    int
	depth    int
	params   ComponentParams

	spawners      []Spawner
	initializers  []Initializer
	updaters      []Updater
	instanceInits []InstanceInitializer
}

func (c *Component) Name() string           { return c.cfg.Name }
func (c *Component) Effect() *Effect        { return c.effect }
func (c *Component) Parent() *Component     { return c.parent }
func (c *Component) Children() []*Component { return c.children }
func (c *Component) Features() []Feature    { return c.cfg.Features }

// Index is the component's position in dependency order
func (c *Component) Index() int { return c.index }

// Depth is the distance from the root, parents always have a smaller depth
func (c *Component) Depth() int { return c.depth }

// IsEnabled reports whether runtimes of this component should run
func (c *Component) IsEnabled() bool { return !c.cfg.Disabled }

// IsChild reports whether the component is bound to parent particles
func (c *Component) IsChild() bool { return c.parent != nil }

// Params returns the compiled parameters
func (c *Component) Params() *ComponentParams { return &c.params }

func (c *Component) Spawners() []Spawner                         { return c.spawners }
func (c *Component) Initializers() []Initializer                 { return c.initializers }
func (c *Component) Updaters() []Updater                         { return c.updaters }
func (c *Component) InstanceInitializers() []InstanceInitializer { return c.instanceInits }

// compile gathers feature capabilities into params, in declared feature order
func (c *Component) compile(seed uint64) {
	schema := particle.NewSchema()
	layout := particle.NewInstanceLayout()
	p := &c.params
	*p = ComponentParams{
		Schema:       schema,
		Layout:       layout,
		Seed:         seed,
		UseGPU:       c.cfg.GPU,
		Trigger:      c.cfg.Trigger,
		TriggerDelay: c.cfg.TriggerDelay,
	}
	c.spawners, c.initializers, c.updaters, c.instanceInits = nil, nil, nil, nil

	for _, f := range c.cfg.Features {
		if d, ok := f.(DataDeclarer); ok {
			d.DeclareData(schema)
		}
		if d, ok := f.(InstanceDeclarer); ok {
			d.DeclareInstanceData(layout)
		}
		if r, ok := f.(CountReporter); ok {
			r.AddMaxParticleCounts(&p.Counts)
		}
		if r, ok := f.(LifetimeReporter); ok {
			p.MaxParticleLife = max(p.MaxParticleLife, r.MaxParticleLife())
		}
		if r, ok := f.(SizeReporter); ok {
			p.MaxParticleSize = max(p.MaxParticleSize, r.MaxParticleSize())
		}
		if s, ok := f.(Spawner); ok {
			c.spawners = append(c.spawners, s)
		}
		if i, ok := f.(Initializer); ok {
			c.initializers = append(c.initializers, i)
		}
		if u, ok := f.(Updater); ok {
			c.updaters = append(c.updaters, u)
		}
		if i, ok := f.(InstanceInitializer); ok {
			c.instanceInits = append(c.instanceInits, i)
		}
	}
	// Children resolve emit locations through parent positions
	schema.Use(particle.Position)
	layout.Freeze()
	p.InstanceDataStride = layout.Stride()
}
