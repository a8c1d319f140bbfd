package engine

import (
	"slices"

	"github.com/lixenwraith/pfx/particle"
	"github.com/lixenwraith/pfx/render"
)

const defaultColor = 0xffffffff

// RenderAll submits this runtime to a pass, choosing the backend once
func (r *ComponentRuntime) RenderAll(pass *render.Pass) {
	if !r.alive || r.IsPreRunning() {
		return
	}
	if r.gpu != nil {
		r.element.Reset()
		r.gpu.Render(&r.element)
		pass.Submit(render.Job{Element: &r.element, GPU: true})
		return
	}
	if r.container.Count() == 0 {
		return
	}
	pass.Submit(render.Job{Producer: r, Element: &r.element})
}

// ComputeVertices projects live particles; dead and non-finite ones are skipped
func (r *ComponentRuntime) ComputeVertices(cam render.Camera, re *render.Element, flags render.Flags, maxPixels float32) {
	c := r.container
	if c.Count() == 0 || !c.Has(particle.Position) {
		return
	}
	pos := c.Vec3(particle.Position)
	age := c.Float(particle.NormalAge)
	var size, alpha []float32
	var color []uint32
	if c.Has(particle.Size) {
		size = c.Float(particle.Size)
	}
	if c.Has(particle.Alpha) {
		alpha = c.Float(particle.Alpha)
	}
	if c.Has(particle.Color) {
		color = c.Uint32(particle.Color)
	}

	for i, p := range pos {
		if c.IsDead(particle.ID(i)) {
			continue
		}
		s, depth, ok := cam.Project(p)
		if !ok || (flags.Has(render.FlagCull) && !cam.InView(s)) {
			continue
		}
		v := render.Vertex{Screen: s, Depth: depth, Color: defaultColor, Alpha: 1, Age: age[i]}
		if size != nil {
			v.Size = cam.PixelSize(p, size[i])
			if maxPixels > 0 {
				v.Size = min(v.Size, maxPixels)
			}
		}
		if alpha != nil {
			v.Alpha = alpha[i]
		}
		if color != nil {
			v.Color = color[i]
		}
		re.Vertices = append(re.Vertices, v)
	}

	if flags.Has(render.FlagDepthSort) {
		slices.SortStableFunc(re.Vertices, func(a, b render.Vertex) int {
			switch {
			case a.Depth > b.Depth:
				return -1
			case a.Depth < b.Depth:
				return 1
			}
			return 0
		})
	}
}

var _ render.VertexProducer = (*ComponentRuntime)(nil)
