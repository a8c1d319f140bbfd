package effect

import (
	"math"
	"slices"
)

// Default frame-rate interval of the estimator
const (
	DefaultMinFPS = 4
	DefaultMaxFPS = 120
)

const estimateEpsilon = 1e-4

// MaxParticleCounts accumulates spawn capacity reported by spawner features
// Burst particles fire BurstRepeat times every BurstPeriod seconds; BurstRepeat 0 repeats forever
// and BurstPeriod 0 fires once
type MaxParticleCounts struct {
	Burst       int
	PerFrame    int
	Rate        float32
	BurstPeriod float32
	BurstRepeat int
}

// Add merges another feature's report
// Merged bursts take the shorter period; an endless repeat on either side stays endless
func (m *MaxParticleCounts) Add(o MaxParticleCounts) {
	m.Burst += o.Burst
	m.PerFrame += o.PerFrame
	m.Rate += o.Rate
	if o.BurstPeriod <= 0 {
		return
	}
	switch {
	case m.BurstPeriod <= 0:
		m.BurstRepeat = o.BurstRepeat
	case m.BurstRepeat == 0 || o.BurstRepeat == 0:
		m.BurstRepeat = 0
	default:
		m.BurstRepeat = max(m.BurstRepeat, o.BurstRepeat)
	}
	if m.BurstPeriod <= 0 || o.BurstPeriod < m.BurstPeriod {
		m.BurstPeriod = o.BurstPeriod
	}
}

// IsZero reports whether nothing can spawn
func (m MaxParticleCounts) IsZero() bool {
	return m.Burst == 0 && m.PerFrame == 0 && m.Rate <= 0
}

// EstimateMaxCounts returns the worst-case live count and worst single-frame spawn count
// for any fixed frame rate in [minFPS, maxFPS]
// Every quantity is a step function of the frame rate, so evaluating each piece between
// breakpoints once yields the exact maximum; a wider interval only adds pieces
func EstimateMaxCounts(counts MaxParticleCounts, lifetime float32, minFPS, maxFPS float32) (total, perFrame int) {
	if minFPS <= 0 {
		minFPS = DefaultMinFPS
	}
	if maxFPS < minFPS {
		maxFPS = minFPS
	}
	if counts.IsZero() {
		return 0, 0
	}
	lo, hi := float64(minFPS), float64(maxFPS)

	for _, f := range estimateCandidates(counts, float64(lifetime), lo, hi) {
		t, p := estimateAt(counts, float64(lifetime), f)
		total = max(total, t)
		perFrame = max(perFrame, p)
	}
	return total, perFrame
}

func estimateAt(c MaxParticleCounts, life, fps float64) (total, perFrame int) {
	rateFrame := 0
	if c.Rate > 0 {
		rateFrame = int(math.Ceil(float64(c.Rate) / fps))
	}
	perFrame = c.Burst + c.PerFrame + rateFrame

	if life <= 0 {
		// Immortal: only bursts are bounded, continuous spawn is sized for one frame
		bursts := 1
		if c.BurstPeriod > 0 && c.BurstRepeat > 0 {
			bursts = c.BurstRepeat
		}
		return c.Burst*bursts + c.PerFrame + rateFrame, perFrame
	}

	framesAlive := int(math.Ceil(life * fps))
	overlap := 1
	if c.BurstPeriod > 0 {
		framesBetween := max(1, int(math.Ceil(float64(c.BurstPeriod)*fps)))
		overlap = (framesAlive + framesBetween - 1) / framesBetween
		if c.BurstRepeat > 0 {
			overlap = min(overlap, c.BurstRepeat)
		}
	}
	total = c.Burst*overlap + (c.PerFrame+rateFrame)*framesAlive
	return total, perFrame
}

// estimateCandidates lists the interval ends plus every breakpoint and its neighbours
func estimateCandidates(c MaxParticleCounts, life, lo, hi float64) []float64 {
	out := []float64{lo, hi}
	add := func(b float64) {
		for _, f := range [3]float64{b - estimateEpsilon, b, b + estimateEpsilon} {
			if f >= lo && f <= hi {
				out = append(out, f)
			}
		}
	}
	// ceil(life * f) steps at f = k / life
	if life > 0 {
		for k := math.Floor(life * lo); k <= math.Ceil(life*hi); k++ {
			add(k / life)
		}
	}
	// ceil(rate / f) steps at f = rate / m
	if c.Rate > 0 {
		rate := float64(c.Rate)
		for m := math.Floor(rate / hi); m <= math.Ceil(rate/lo); m++ {
			if m > 0 {
				add(rate / m)
			}
		}
	}
	// ceil(period * f) steps at f = m / period
	if c.BurstPeriod > 0 {
		period := float64(c.BurstPeriod)
		for m := math.Floor(period * lo); m <= math.Ceil(period*hi); m++ {
			add(m / period)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
