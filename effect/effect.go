package effect

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

var (
	ErrEmptyEffect        = errors.New("effect has no components")
	ErrDuplicateComponent = errors.New("duplicate component name")
	ErrUnknownParent      = errors.New("unknown parent component")
	ErrCycle              = errors.New("component parent cycle")
	ErrCompiled           = errors.New("effect already compiled")
	ErrUnnamedComponent   = errors.New("component needs a name")
)

// Effect is an immutable-after-compile graph of components in dependency order
type Effect struct {
	name       string
	components []*Component
	byName     map[string]*Component
	preRun     float32
	compiled   bool
}

// NewEffect creates an empty effect
func NewEffect(name string) *Effect {
	return &Effect{
		name:   name,
		byName: make(map[string]*Component),
	}
}

func (e *Effect) Name() string { return e.name }

// Compiled reports whether Compile succeeded
func (e *Effect) Compiled() bool { return e.compiled }

// SetPreRun requests a warm-up of the given seconds when emitters activate
func (e *Effect) SetPreRun(seconds float32) { e.preRun = seconds }

// PreRun returns the requested warm-up time, 0 for none
func (e *Effect) PreRun() float32 { return e.preRun }

// Add registers a component; parents may be added after their children
func (e *Effect) Add(cfg ComponentConfig) (*Component, error) {
	if e.compiled {
		return nil, ErrCompiled
	}
	if cfg.Name == "" {
		return nil, ErrUnnamedComponent
	}
	if _, ok := e.byName[cfg.Name]; ok {
		return nil, errors.Wrapf(ErrDuplicateComponent, "component %q", cfg.Name)
	}
	c := &Component{cfg: cfg, effect: e, index: len(e.components)}
	e.components = append(e.components, c)
	e.byName[cfg.Name] = c
	return c, nil
}

// MustAdd is Add for static effect definitions
func (e *Effect) MustAdd(cfg ComponentConfig) *Component {
	c, err := e.Add(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Components returns components with every parent before its children
func (e *Effect) Components() []*Component { return e.components }

// Component looks up a component by name
func (e *Effect) Component(name string) (*Component, bool) {
	c, ok := e.byName[name]
	return c, ok
}

// Compile resolves parents, orders components parent-first and freezes params
func (e *Effect) Compile() error {
	if e.compiled {
		return ErrCompiled
	}
	if len(e.components) == 0 {
		return ErrEmptyEffect
	}

	for _, c := range e.components {
		c.parent, c.children = nil, nil
	}
	for _, c := range e.components {
		if c.cfg.Parent == "" {
			continue
		}
		p, ok := e.byName[c.cfg.Parent]
		if !ok {
			return errors.Wrapf(ErrUnknownParent, "component %q references %q", c.cfg.Name, c.cfg.Parent)
		}
		c.parent = p
	}

	ordered := make([]*Component, 0, len(e.components))
	placed := make(map[*Component]bool, len(e.components))
	for len(ordered) < len(e.components) {
		progress := false
		for _, c := range e.components {
			if placed[c] || (c.parent != nil && !placed[c.parent]) {
				continue
			}
			placed[c] = true
			ordered = append(ordered, c)
			progress = true
		}
		if !progress {
			for _, c := range e.components {
				if !placed[c] {
					return errors.Wrapf(ErrCycle, "component %q", c.cfg.Name)
				}
			}
		}
	}

	for i, c := range ordered {
		c.index = i
		c.depth = 0
		if c.parent != nil {
			c.depth = c.parent.depth + 1
			c.parent.children = append(c.parent.children, c)
		}
	}
	e.components = ordered

	for _, c := range e.components {
		c.compile(xxhash.Sum64String(e.name + "/" + c.cfg.Name))
	}
	for _, c := range e.components {
		c.params.Schema.Freeze()
	}
	e.compiled = true
	return nil
}

// MaxDepth returns the deepest component depth
func (e *Effect) MaxDepth() int {
	d := 0
	for _, c := range e.components {
		d = max(d, c.depth)
	}
	return d
}
