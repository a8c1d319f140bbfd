package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Flags tune vertex production
type Flags uint32

const (
	// FlagCull drops particles projected off screen
	FlagCull Flags = 1 << iota
	// FlagDepthSort orders vertices back to front
	FlagDepthSort
)

// Has reports whether all bits of f2 are set
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Vertex is one particle as seen by a render target
type Vertex struct {
	Screen mgl32.Vec2
	Depth  float32
	Size   float32
	Color  uint32
	Alpha  float32
	Age    float32
}

// GPUDraw references particles that live in a GPU delegate's buffers
type GPUDraw struct {
	Count  int
	Bounds [2]mgl32.Vec3
}

// Element is the render handle of one runtime for one pass
// CPU producers fill Vertices, GPU delegates fill Draw
type Element struct {
	Name     string
	Priority int
	Vertices []Vertex
	Draw     *GPUDraw
}

// Reset empties the element for reuse
func (e *Element) Reset() {
	e.Vertices = e.Vertices[:0]
	e.Draw = nil
}

// VertexProducer builds vertices for the current live particle set
// maxPixels clamps the projected particle size
type VertexProducer interface {
	ComputeVertices(cam Camera, re *Element, flags Flags, maxPixels float32)
}

// Job is one submission to a pass
type Job struct {
	Producer VertexProducer
	Element  *Element
	GPU      bool
}

// Pass gathers jobs from alive runtimes, then runs CPU producers in priority order
type Pass struct {
	Camera    Camera
	Flags     Flags
	MaxPixels float32

	jobs  []Job
	index []int
}

// NewPass creates a pass for one camera
func NewPass(cam Camera, flags Flags, maxPixels float32) *Pass {
	return &Pass{Camera: cam, Flags: flags, MaxPixels: maxPixels}
}

// Submit adds a job keeping priority order, ties in submission order
func (p *Pass) Submit(job Job) {
	pos := len(p.jobs)
	for i, j := range p.jobs {
		if job.Element.Priority < j.Element.Priority {
			pos = i
			break
		}
	}
	p.jobs = append(p.jobs, Job{})
	copy(p.jobs[pos+1:], p.jobs[pos:])
	p.jobs[pos] = job
}

// Jobs returns the submitted jobs in draw order
func (p *Pass) Jobs() []Job { return p.jobs }

// Execute runs every CPU producer; GPU jobs were filled at submission
func (p *Pass) Execute() {
	for _, j := range p.jobs {
		if j.GPU || j.Producer == nil {
			continue
		}
		j.Element.Reset()
		j.Producer.ComputeVertices(p.Camera, j.Element, p.Flags, p.MaxPixels)
	}
}

// Elements lists the elements in draw order
func (p *Pass) Elements() []*Element {
	out := make([]*Element, len(p.jobs))
	for i, j := range p.jobs {
		out[i] = j.Element
	}
	return out
}

// Reset drops all jobs, keeping capacity
func (p *Pass) Reset() {
	p.jobs = p.jobs[:0]
}
