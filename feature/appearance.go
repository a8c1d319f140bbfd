package feature

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/particle"
)

// SizeOverLife interpolates particle radius from Start to End over normalized age
type SizeOverLife struct {
	Start, End float32
}

func (f *SizeOverLife) Name() string { return "size" }

func (f *SizeOverLife) DeclareData(s *particle.Schema) {
	s.Use(particle.Size)
}

func (f *SizeOverLife) MaxParticleSize() float32 { return max(f.Start, f.End) }

func (f *SizeOverLife) InitParticles(rt effect.Runtime, r particle.Range) {
	f.UpdateParticles(rt, r, 0)
}

func (f *SizeOverLife) UpdateParticles(rt effect.Runtime, r particle.Range, _ float32) {
	c := rt.Container()
	size := particle.Sub(c.Float(particle.Size), r)
	age := particle.Sub(c.Float(particle.NormalAge), r)
	for i := range size {
		size[i] = lerp(f.Start, f.End, age[i])
	}
}

// ColorOverLife fades packed RGBA color and alpha from From to To over normalized age
type ColorOverLife struct {
	From, To uint32
}

func (f *ColorOverLife) Name() string { return "color" }

func (f *ColorOverLife) DeclareData(s *particle.Schema) {
	s.Use(particle.Color, particle.Alpha)
}

func (f *ColorOverLife) InitParticles(rt effect.Runtime, r particle.Range) {
	f.UpdateParticles(rt, r, 0)
}

func (f *ColorOverLife) UpdateParticles(rt effect.Runtime, r particle.Range, _ float32) {
	c := rt.Container()
	col := particle.Sub(c.Uint32(particle.Color), r)
	alpha := particle.Sub(c.Float(particle.Alpha), r)
	age := particle.Sub(c.Float(particle.NormalAge), r)
	for i := range col {
		col[i] = LerpRGBA(f.From, f.To, age[i])
		alpha[i] = float32(col[i]&0xff) / 255
	}
}

// Spin rotates particles about Axis at Speed radians per second
// The accumulated angle lives in a custom column so renderers can read it
type Spin struct {
	Axis  mgl32.Vec3
	Speed float32

	angle particle.DataType
}

func (f *Spin) Name() string { return "spin" }

func (f *Spin) DeclareData(s *particle.Schema) {
	s.Use(particle.Orientation)
	f.angle = s.RegisterFloat("spin_angle")
}

// Angle returns the custom column the feature registered
func (f *Spin) Angle() particle.DataType { return f.angle }

func (f *Spin) UpdateParticles(rt effect.Runtime, r particle.Range, dt float32) {
	axis := f.Axis
	if axis.Len() == 0 {
		axis = mgl32.Vec3{0, 0, 1}
	}
	step := mgl32.QuatRotate(f.Speed*dt, axis.Normalize())
	c := rt.Container()
	angle := particle.Sub(c.Float(f.angle), r)
	ori := particle.Sub(c.Quat(particle.Orientation), r)
	for i := range angle {
		angle[i] += f.Speed * dt
		ori[i] = step.Mul(ori[i]).Normalize()
	}
}

func lerp(a, b, t float32) float32 {
	t = mgl32.Clamp(t, 0, 1)
	return a + (b-a)*t
}

// LerpRGBA blends packed 0xRRGGBBAA colors channel by channel
func LerpRGBA(a, b uint32, t float32) uint32 {
	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		ca := float32((a >> shift) & 0xff)
		cb := float32((b >> shift) & 0xff)
		out |= uint32(lerp(ca, cb, t)+0.5) << shift
	}
	return out
}
