package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Lanes is the width of the vectorized chaos key
const Lanes = 4

// zeroSeed replaces a zero seed, xorshift never leaves the all-zero state
const zeroSeed = 0x9e3779b97f4a7c15

// mix64 is the splitmix64 finalizer
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// ChaosKey is a deterministic xorshift64 (13, 17, 5) generator
// Drawing mutates state; runtimes hand out a pointer from read accessors
type ChaosKey struct {
	state uint64
}

// NewChaosKey seeds a key directly
func NewChaosKey(seed uint64) ChaosKey {
	if seed == 0 {
		seed = zeroSeed
	}
	return ChaosKey{state: seed}
}

// ChaosKeyFor derives a key reproducible from (seed, particle id, call index)
func ChaosKeyFor(seed uint64, particleID, call uint32) ChaosKey {
	return NewChaosKey(mix64(seed ^ mix64(uint64(particleID)<<32|uint64(call))))
}

// Fork derives an independent key for a sub-stream without advancing the parent
func (k *ChaosKey) Fork(call uint32) ChaosKey {
	return ChaosKeyFor(k.state, 0, call)
}

// Next advances and returns the raw 64-bit state
func (k *ChaosKey) Next() uint64 {
	x := k.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	k.state = x
	return x
}

// Rand returns 32 random bits
func (k *ChaosKey) Rand() uint32 {
	return uint32(k.Next() >> 32)
}

// Intn returns a value in [0, n), 0 for n <= 0
func (k *ChaosKey) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(k.Next() % uint64(n))
}

// RandUnit returns a float in [0, 1)
func (k *ChaosKey) RandUnit() float32 {
	return float32(k.Next()>>40) / (1 << 24)
}

// RandSNorm returns a float in [-1, 1)
func (k *ChaosKey) RandSNorm() float32 {
	return k.RandUnit()*2 - 1
}

// RandRange returns a float in [lo, hi)
func (k *ChaosKey) RandRange(lo, hi float32) float32 {
	return lo + (hi-lo)*k.RandUnit()
}

// RandSphere returns a uniformly distributed unit vector
func (k *ChaosKey) RandSphere() mgl32.Vec3 {
	z := k.RandSNorm()
	phi := float64(k.RandUnit()) * 2 * math.Pi
	r := float32(math.Sqrt(float64(1 - z*z)))
	return mgl32.Vec3{r * float32(math.Cos(phi)), r * float32(math.Sin(phi)), z}
}

// ChaosKeyV runs Lanes independent streams side by side
// Lane i seeded with s yields the same stream as ChaosKeyFor(s, i, 0)
type ChaosKeyV struct {
	state [Lanes]uint64
}

// NewChaosKeyV seeds every lane from (seed, lane)
func NewChaosKeyV(seed uint64) ChaosKeyV {
	var v ChaosKeyV
	for i := range v.state {
		k := ChaosKeyFor(seed, uint32(i), 0)
		v.state[i] = k.state
	}
	return v
}

// Next advances all lanes
func (v *ChaosKeyV) Next() [Lanes]uint64 {
	var out [Lanes]uint64
	for i := range v.state {
		x := v.state[i]
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		v.state[i] = x
		out[i] = x
	}
	return out
}

// RandUnit returns one [0, 1) float per lane
func (v *ChaosKeyV) RandUnit() [Lanes]float32 {
	raw := v.Next()
	var out [Lanes]float32
	for i, r := range raw {
		out[i] = float32(r>>40) / (1 << 24)
	}
	return out
}

// RandSNorm returns one [-1, 1) float per lane
func (v *ChaosKeyV) RandSNorm() [Lanes]float32 {
	out := v.RandUnit()
	for i := range out {
		out[i] = out[i]*2 - 1
	}
	return out
}

// RandRange returns one [lo, hi) float per lane
func (v *ChaosKeyV) RandRange(lo, hi float32) [Lanes]float32 {
	out := v.RandUnit()
	for i := range out {
		out[i] = lo + (hi-lo)*out[i]
	}
	return out
}

// Lane extracts a scalar key continuing lane i's stream
func (v *ChaosKeyV) Lane(i int) ChaosKey {
	return ChaosKey{state: v.state[i]}
}
