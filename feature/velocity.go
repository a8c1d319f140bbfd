package feature

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/vmath"
)

// Velocity gives new particles a speed in [MinSpeed, MaxSpeed] along Direction
// Spread 0 keeps the direction, 1 scatters over the whole sphere
// Directions are in the emit frame, so children inherit their parent's orientation
type Velocity struct {
	Direction          mgl32.Vec3
	Spread             float32
	MinSpeed, MaxSpeed float32
}

func (f *Velocity) Name() string { return "velocity" }

func (f *Velocity) DeclareData(s *particle.Schema) {
	s.Use(particle.Velocity, particle.Orientation)
}

// InitParticles draws speeds a lane group at a time
func (f *Velocity) InitParticles(rt effect.Runtime, r particle.Range) {
	c := rt.Container()
	vel := c.Vec3(particle.Velocity)
	ori := c.Quat(particle.Orientation)
	chaosV := rt.ChaosV()
	chaos := rt.Chaos()

	dir := f.Direction
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 1, 0}
	}
	dir = dir.Normalize()

	g := r.Groups(vmath.Lanes)
	for base := g.Start; base < g.End; base += vmath.Lanes {
		speeds := chaosV.RandRange(f.MinSpeed, f.MaxSpeed)
		for lane := particle.ID(0); lane < vmath.Lanes; lane++ {
			id := base + lane
			if !r.Contains(id) {
				continue
			}
			d := dir
			if f.Spread > 0 {
				d = d.Mul(1 - f.Spread).Add(chaos.RandSphere().Mul(f.Spread))
				if d.Len() == 0 {
					d = dir
				}
				d = d.Normalize()
			}
			vel[id] = ori[id].Rotate(d).Mul(speeds[lane])
		}
	}
}

// Motion integrates velocity with constant acceleration and linear drag
type Motion struct {
	Gravity mgl32.Vec3
	Drag    float32
}

func (f *Motion) Name() string { return "motion" }

func (f *Motion) DeclareData(s *particle.Schema) {
	s.Use(particle.Position, particle.Velocity)
}

func (f *Motion) UpdateParticles(rt effect.Runtime, r particle.Range, dt float32) {
	c := rt.Container()
	pos := particle.Sub(c.Vec3(particle.Position), r)
	vel := particle.Sub(c.Vec3(particle.Velocity), r)
	damp := max(0, 1-f.Drag*dt)
	for i := range pos {
		v := vel[i].Add(f.Gravity.Mul(dt)).Mul(damp)
		vel[i] = v
		pos[i] = pos[i].Add(v.Mul(dt))
	}
}
