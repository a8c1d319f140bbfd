package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned box; the empty box has Min > Max on every axis
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB returns the identity element for Union
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewAABB builds a box from two corners in any order
func NewAABB(a, b mgl32.Vec3) AABB {
	box := EmptyAABB()
	box.AddPoint(a)
	box.AddPoint(b)
	return box
}

// IsEmpty reports whether no point has been added
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// AddPoint grows the box to include p
func (b *AABB) AddPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// AddSphere grows the box to include a sphere of radius r around p
func (b *AABB) AddSphere(p mgl32.Vec3, r float32) {
	if r < 0 {
		r = -r
	}
	b.AddPoint(mgl32.Vec3{p[0] - r, p[1] - r, p[2] - r})
	b.AddPoint(mgl32.Vec3{p[0] + r, p[1] + r, p[2] + r})
}

// Add unions other into the box; an empty other is a no-op
func (b *AABB) Add(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.AddPoint(other.Min)
	b.AddPoint(other.Max)
}

// Union returns the smallest box containing both
func Union(a, b AABB) AABB {
	a.Add(b)
	return a
}

// Contains reports whether other lies fully inside b
func (b AABB) Contains(other AABB) bool {
	if other.IsEmpty() {
		return true
	}
	return b.ContainsPoint(other.Min) && b.ContainsPoint(other.Max)
}

// ContainsPoint reports whether p lies inside b, boundary inclusive
func (b AABB) ContainsPoint(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the box midpoint, zero for an empty box
func (b AABB) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents, zero for an empty box
func (b AABB) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// IsFinite reports whether every coordinate of a vector is a real number
func IsFinite(v mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		f := float64(v[i])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
