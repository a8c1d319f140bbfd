package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/pfx/vmath"
)

// tone streams one Sound with an attack/release envelope, then ends
type tone struct {
	s       Sound
	rate    beep.SampleRate
	pos     int
	total   int
	attack  int
	release int
	phase   float64
	noise   vmath.ChaosKey
}

func newTone(s Sound, rate beep.SampleRate, seed uint64) *tone {
	t := &tone{
		s:       s,
		rate:    rate,
		total:   rate.N(s.Duration),
		attack:  rate.N(s.Attack),
		release: rate.N(s.Release),
		noise:   vmath.NewChaosKey(seed),
	}
	if t.s.Volume <= 0 {
		t.s.Volume = 1
	}
	return t
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	inc := t.s.Freq / float64(t.rate)
	releaseStart := max(t.total-t.release, t.attack)
	for i := range samples {
		if t.pos >= t.total {
			return i, true
		}
		var v float64
		switch t.s.Wave {
		case WaveSine:
			v = math.Sin(2 * math.Pi * t.phase)
		case WaveSquare:
			v = 1
			if t.phase >= 0.5 {
				v = -1
			}
		case WaveSaw:
			v = 2 * (t.phase - 0.5)
		case WaveNoise:
			v = float64(t.noise.RandSNorm())
		}
		t.phase += inc
		if t.phase >= 1 {
			t.phase -= 1
		}

		env := 1.0
		if t.pos < t.attack {
			env = float64(t.pos) / float64(t.attack)
		} else if t.pos >= releaseStart && t.release > 0 {
			env = float64(t.total-t.pos) / float64(t.release)
		}
		v *= env * t.s.Volume
		samples[i] = [2]float64{v, v}
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }
