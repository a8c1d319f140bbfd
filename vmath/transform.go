package vmath

import "github.com/go-gl/mathgl/mgl32"

// QuatTS is a rotation, translation and uniform scale
type QuatTS struct {
	Q mgl32.Quat
	T mgl32.Vec3
	S float32
}

// IdentityQuatTS returns the neutral transform
func IdentityQuatTS() QuatTS {
	return QuatTS{Q: mgl32.QuatIdent(), S: 1}
}

// NewQuatTS builds a transform at position t with identity rotation and unit scale
func NewQuatTS(t mgl32.Vec3) QuatTS {
	return QuatTS{Q: mgl32.QuatIdent(), T: t, S: 1}
}

// Apply transforms a local point into the parent space
func (x QuatTS) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return x.Q.Rotate(p.Mul(x.S)).Add(x.T)
}

// ApplyVector rotates and scales a direction, ignoring translation
func (x QuatTS) ApplyVector(v mgl32.Vec3) mgl32.Vec3 {
	return x.Q.Rotate(v.Mul(x.S))
}

// Compose returns x * local, local expressed in x's frame
func (x QuatTS) Compose(local QuatTS) QuatTS {
	return QuatTS{
		Q: x.Q.Mul(local.Q).Normalize(),
		T: x.Apply(local.T),
		S: x.S * local.S,
	}
}
