package feature

import (
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/particle"
)

// Lifetime assigns each particle a life in [Min, Max] seconds; 0 means immortal
type Lifetime struct {
	Min, Max float32
}

func (f *Lifetime) Name() string { return "lifetime" }

func (f *Lifetime) DeclareData(s *particle.Schema) {
	s.Use(particle.NormalAge, particle.InvLifetime)
}

func (f *Lifetime) MaxParticleLife() float32 { return max(f.Min, f.Max) }

// InitParticles converts each particle's frame-start age into normalized age
func (f *Lifetime) InitParticles(rt effect.Runtime, r particle.Range) {
	c := rt.Container()
	inv := c.Float(particle.InvLifetime)
	age := c.Float(particle.NormalAge)
	ages := c.SpawnAges()
	spawned := rt.SpawnedRange()
	chaos := rt.Chaos()

	for id := r.Start; id < r.End; id++ {
		life := f.Min
		if f.Max > f.Min {
			life = chaos.RandRange(f.Min, f.Max)
		}
		if life <= 0 {
			inv[id], age[id] = 0, 0
			continue
		}
		inv[id] = 1 / life
		age[id] = 0
		if k := int(id - spawned.Start); spawned.Contains(id) && k < len(ages) {
			age[id] = ages[k] * inv[id]
		}
	}
}

// KillOnParentDeath removes child particles whose parent particle is gone
type KillOnParentDeath struct{}

func (KillOnParentDeath) Name() string { return "kill_on_parent_death" }

func (KillOnParentDeath) UpdateParticles(rt effect.Runtime, r particle.Range, _ float32) {
	if !rt.Component().IsChild() {
		return
	}
	c := rt.Container()
	parents := c.IDs(particle.ParentID)
	for id := r.Start; id < r.End; id++ {
		if parents[id] == particle.InvalidID {
			c.MarkDead(id)
		}
	}
}
