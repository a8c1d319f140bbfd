// Package gpu defines the capability a component runtime delegates per-particle simulation to
package gpu

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/vmath"
)

// ErrUnsupported is returned by devices that cannot run a component
var ErrUnsupported = errors.New("gpu runtime unsupported")

// Spawn asks the delegate for Count particles at one emit location
// Delay is how far into the frame, in seconds, the particles are born
type Spawn struct {
	Count    int
	Location vmath.QuatTS
	Delay    float32
}

// FrameData is the per-frame delta pushed to a delegate
// The CPU side keeps instances; particles exist only on the device
// Clear drops every device particle before the frame's spawns are applied and is never skipped
type FrameData struct {
	Clear            bool
	Instances        int
	RemovedInstances int
	Spawns           []Spawn
	DeltaTime        float32
}

// Runtime is the device side of one component runtime
// UpdateFrame does not wait for the device; Bounds, NumParticles and Removed may lag a frame
// Removed counts every particle the device dropped, by expiry or Clear
type Runtime interface {
	UpdateFrame(frame FrameData)
	Bounds() vmath.AABB
	NumParticles() int
	Removed() int64
	Render(re *render.Element)
	Release()
}

// Device creates delegates for GPU-authored components
type Device interface {
	CreateRuntime(params *effect.ComponentParams) (Runtime, error)
}
