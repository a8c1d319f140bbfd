package particle

import "github.com/go-gl/mathgl/mgl32"

// View is a read-only accessor of another runtime's container
// Children use it to read parent positions; it never mutates
type View struct {
	c *Container
}

// NewView wraps a container; a nil container yields an empty view
func NewView(c *Container) View { return View{c: c} }

// Valid reports whether the view is bound to a container
func (v View) Valid() bool { return v.c != nil }

// Count returns the parent's live particle count
func (v View) Count() int {
	if v.c == nil {
		return 0
	}
	return v.c.count
}

// Has reports whether the column exists
func (v View) Has(t DataType) bool { return v.c != nil && v.c.Has(t) }

// Position returns a particle position, zero when the column is absent
func (v View) Position(id ID) mgl32.Vec3 {
	v.check(id, "View.Position")
	if !v.c.Has(Position) {
		return mgl32.Vec3{}
	}
	return v.c.cols[Position].v3[id]
}

// Orientation returns a particle orientation, identity when the column is absent
func (v View) Orientation(id ID) mgl32.Quat {
	v.check(id, "View.Orientation")
	if !v.c.Has(Orientation) {
		return mgl32.QuatIdent()
	}
	return v.c.cols[Orientation].q[id]
}

// Float reads one float attribute, zero when the column is absent
func (v View) Float(t DataType, id ID) float32 {
	v.check(id, "View.Float")
	if !v.c.Has(t) {
		return 0
	}
	return v.c.column(t, KindFloat, "View.Float").f32[id]
}

// SpawnID returns the particle's spawn serial, distinguishing reuses of one slot
func (v View) SpawnID(id ID) uint32 {
	v.check(id, "View.SpawnID")
	return v.c.cols[SpawnID].u32[id]
}

func (v View) check(id ID, op string) {
	Precondition(v.c != nil, op, "view is not bound")
	Precondition(int(id) < v.c.count, op, "id %d out of %d", id, v.c.count)
}
