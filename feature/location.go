package feature

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/particle"
)

// Location places new particles at their emit location, offset and scattered inside a sphere
type Location struct {
	Offset mgl32.Vec3
	Radius float32
}

func (f *Location) Name() string { return "location" }

func (f *Location) DeclareData(s *particle.Schema) {
	s.Use(particle.Position, particle.Orientation)
}

func (f *Location) InitParticles(rt effect.Runtime, r particle.Range) {
	c := rt.Container()
	pos := c.Vec3(particle.Position)
	ori := c.Quat(particle.Orientation)
	chaos := rt.Chaos()

	for id := r.Start; id < r.End; id++ {
		loc := rt.SpawnLocation(id)
		p := f.Offset
		if f.Radius > 0 {
			// Cube root keeps the scatter uniform in volume
			d := f.Radius * float32(math.Cbrt(float64(chaos.RandUnit())))
			p = p.Add(chaos.RandSphere().Mul(d))
		}
		pos[id] = loc.Apply(p)
		ori[id] = loc.Q
	}
}
