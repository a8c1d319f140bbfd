package status

import "sync/atomic"

// Metric keys published by the particle system
const (
	KeyFrames        = "pfx.frames"
	KeyRuntimes      = "pfx.runtimes"
	KeyRuntimesAlive = "pfx.runtimes.alive"
	KeyRuntimesGPU   = "pfx.runtimes.gpu"
	KeyParticles     = "pfx.particles"
	KeyParticlesPeak = "pfx.particles.peak"
	KeyInstances     = "pfx.instances"
	KeySpawned       = "pfx.spawned"
	KeyRemoved       = "pfx.removed"
	KeyUnstable      = "pfx.unstable"
	KeyFaults        = "pfx.faults"
)

type metricInfo struct {
	help    string
	counter bool
}

var particleMetrics = map[string]metricInfo{
	KeyFrames:        {"Frames simulated", true},
	KeyRuntimes:      {"Component runtimes owned by live emitters", false},
	KeyRuntimesAlive: {"Component runtimes still being stepped", false},
	KeyRuntimesGPU:   {"Component runtimes simulated by a GPU delegate", false},
	KeyParticles:     {"Live particles", false},
	KeyParticlesPeak: {"Highest live particle count seen", false},
	KeyInstances:     {"Live sub-instances", false},
	KeySpawned:       {"Particles spawned, including removed emitters", true},
	KeyRemoved:       {"Particles removed, including removed emitters", true},
	KeyUnstable:      {"Particles dropped for non-finite state", true},
	KeyFaults:        {"Runtime updates that panicked", true},
}

// Particle caches the particle system's metric pointers
type Particle struct {
	Frames        *atomic.Int64
	Runtimes      *atomic.Int64
	RuntimesAlive *atomic.Int64
	RuntimesGPU   *atomic.Int64
	Particles     *atomic.Int64
	ParticlesPeak *AtomicFloat
	Instances     *atomic.Int64
	Spawned       *atomic.Int64
	Removed       *atomic.Int64
	Unstable      *atomic.Int64
	Faults        *atomic.Int64
}

// Registry is the particle system's metric facade
// The particle metrics exist from construction so exporters see them before the first frame
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]

	Particle Particle
}

// NewRegistry creates a Registry with the particle metrics registered at zero
func NewRegistry() *Registry {
	r := &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
	r.Particle = Particle{
		Frames:        r.Ints.Get(KeyFrames),
		Runtimes:      r.Ints.Get(KeyRuntimes),
		RuntimesAlive: r.Ints.Get(KeyRuntimesAlive),
		RuntimesGPU:   r.Ints.Get(KeyRuntimesGPU),
		Particles:     r.Ints.Get(KeyParticles),
		ParticlesPeak: r.Floats.Get(KeyParticlesPeak),
		Instances:     r.Ints.Get(KeyInstances),
		Spawned:       r.Ints.Get(KeySpawned),
		Removed:       r.Ints.Get(KeyRemoved),
		Unstable:      r.Ints.Get(KeyUnstable),
		Faults:        r.Ints.Get(KeyFaults),
	}
	return r
}

// ParticleMetricCount is the number of metrics NewRegistry registers
func ParticleMetricCount() int { return len(particleMetrics) }

// TotalCount returns the number of metrics of every type
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count()
}

// Snapshot copies every metric into plain values, keyed by name
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64, r.TotalCount())
	r.Bools.Range(func(k string, v *atomic.Bool) {
		if v.Load() {
			out[k] = 1
		} else {
			out[k] = 0
		}
	})
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = float64(v.Load()) })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = v.Get() })
	return out
}
