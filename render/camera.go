package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/pfx/parameter"
)

// Camera describes the view particles are projected through
type Camera struct {
	Position mgl32.Vec3
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Width    int
	Height   int
}

// NewOrthoCamera looks down -Z at the XY plane, unitsPerCell world units per pixel column
func NewOrthoCamera(width, height int, center mgl32.Vec2, unitsPerCell float32) Camera {
	hw := float32(width) * unitsPerCell / 2
	hh := float32(height) * unitsPerCell / 2
	eye := mgl32.Vec3{center.X(), center.Y(), 10}
	return Camera{
		Position: eye,
		View:     mgl32.LookAtV(eye, mgl32.Vec3{center.X(), center.Y(), 0}, mgl32.Vec3{0, 1, 0}),
		Proj:     mgl32.Ortho(-hw, hw, -hh, hh, 0.1, 100),
		Width:    width,
		Height:   height,
	}
}

// NewTerminalCamera is an ortho camera for character cells, which are taller than wide
func NewTerminalCamera(cols, rows int, center mgl32.Vec2, unitsPerCol float32) Camera {
	c := NewOrthoCamera(cols, rows, center, unitsPerCol)
	hw := float32(cols) * unitsPerCol / 2
	hh := float32(rows) * unitsPerCol * parameter.TerminalCellAspect / 2
	c.Proj = mgl32.Ortho(-hw, hw, -hh, hh, 0.1, 100)
	return c
}

// Project maps a world point to pixel coordinates and clip depth
// ok is false behind the camera or outside the depth range
func (c Camera) Project(p mgl32.Vec3) (screen mgl32.Vec2, depth float32, ok bool) {
	clip := c.Proj.Mul4(c.View).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return mgl32.Vec2{}, 0, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return mgl32.Vec2{}, 0, false
	}
	screen = mgl32.Vec2{
		(ndc.X() + 1) / 2 * float32(c.Width),
		(1 - ndc.Y()) / 2 * float32(c.Height),
	}
	return screen, ndc.Z(), true
}

// PixelSize returns the projected diameter in pixels of a sphere of radius r at p
func (c Camera) PixelSize(p mgl32.Vec3, r float32) float32 {
	clip := c.Proj.Mul4(c.View).Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return 0
	}
	return 2 * r * c.Proj.At(0, 0) / w * float32(c.Width) / 2
}

// InView reports whether a pixel position lies on screen
func (c Camera) InView(s mgl32.Vec2) bool {
	return s.X() >= 0 && s.Y() >= 0 && s.X() < float32(c.Width) && s.Y() < float32(c.Height)
}
