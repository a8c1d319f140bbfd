package engine

import (
	"github.com/lixenwraith/pfx/status"
)

// Stats aggregates runtime counters; spawn, removal and instability counts are cumulative
type Stats struct {
	Runtimes      int64
	AliveRuntimes int64
	GPURuntimes   int64
	Particles     int64
	Instances     int64
	Spawned       int64
	Removed       int64
	Unstable      int64
	Faults        int64
}

// Add sums the cumulative counters of o into s
func (s *Stats) Add(o Stats) {
	s.Spawned += o.Spawned
	s.Removed += o.Removed
	s.Unstable += o.Unstable
	s.Faults += o.Faults
}

// Publish writes the stats into a metric registry
func (s Stats) Publish(reg *status.Registry) {
	m := reg.Particle
	m.Runtimes.Store(s.Runtimes)
	m.RuntimesAlive.Store(s.AliveRuntimes)
	m.RuntimesGPU.Store(s.GPURuntimes)
	m.Particles.Store(s.Particles)
	m.Instances.Store(s.Instances)
	m.Spawned.Store(s.Spawned)
	m.Removed.Store(s.Removed)
	m.Unstable.Store(s.Unstable)
	m.Faults.Store(s.Faults)
	m.ParticlesPeak.Max(float64(s.Particles))
}
