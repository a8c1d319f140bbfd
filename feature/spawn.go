package feature

import (
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/particle"
)

type burstState struct {
	Timer float32
	Fired uint32
}

// SpawnCount emits Count particles per instance, once or every Period seconds
// Repeat limits the number of bursts; 0 with a Period repeats until the instance goes away
type SpawnCount struct {
	Count  int
	Period float32
	Repeat int

	state particle.DataOffset[burstState]
}

func (f *SpawnCount) Name() string { return "spawn_count" }

func (f *SpawnCount) DeclareInstanceData(l *particle.InstanceLayout) {
	f.state = particle.Declare[burstState](l, f.Name())
}

func (f *SpawnCount) AddMaxParticleCounts(c *effect.MaxParticleCounts) {
	c.Add(effect.MaxParticleCounts{Burst: f.Count, BurstPeriod: f.Period, BurstRepeat: f.Repeat})
}

func (f *SpawnCount) Spawn(rt effect.Runtime, out []particle.SpawnEntry) []particle.SpawnEntry {
	insts := rt.Instances()
	dt := rt.DeltaTime()
	for i := 0; i < insts.Len(); i++ {
		if insts.At(i).StartDelay > 0 {
			continue
		}
		st := particle.InstanceData(insts, i, f.state)
		// The first burst fires at frame start, repeats when the timer crossed the period
		var delay float32
		if st.Fired > 0 {
			if f.Period <= 0 || (f.Repeat > 0 && int(st.Fired) >= f.Repeat) {
				continue
			}
			st.Timer += dt
			if st.Timer < f.Period {
				continue
			}
			st.Timer -= f.Period
			delay = max(0, dt-st.Timer)
		}
		st.Fired++
		out = append(out, particle.SpawnEntry{
			Instance: uint32(i),
			Count:    uint32(f.Count),
			Delay:    delay,
		})
	}
	return out
}

type rateState struct {
	Accum   float32
	Elapsed float32
}

// SpawnRate emits Rate particles per second per instance, for Duration seconds or forever when 0
type SpawnRate struct {
	Rate     float32
	Duration float32

	state particle.DataOffset[rateState]
}

func (f *SpawnRate) Name() string { return "spawn_rate" }

func (f *SpawnRate) DeclareInstanceData(l *particle.InstanceLayout) {
	f.state = particle.Declare[rateState](l, f.Name())
}

func (f *SpawnRate) AddMaxParticleCounts(c *effect.MaxParticleCounts) {
	c.Add(effect.MaxParticleCounts{Rate: f.Rate})
}

func (f *SpawnRate) Spawn(rt effect.Runtime, out []particle.SpawnEntry) []particle.SpawnEntry {
	if f.Rate <= 0 {
		return out
	}
	insts := rt.Instances()
	dt := rt.DeltaTime()
	step := 1 / f.Rate
	for i := 0; i < insts.Len(); i++ {
		if insts.At(i).StartDelay > 0 {
			continue
		}
		st := particle.InstanceData(insts, i, f.state)
		active := dt
		if f.Duration > 0 {
			active = min(dt, f.Duration-st.Elapsed)
			if active <= 0 {
				continue
			}
		}
		st.Elapsed += active
		st.Accum += f.Rate * active
		n := int(st.Accum)
		if n == 0 {
			continue
		}
		st.Accum -= float32(n)
		// The newest particle was born Accum steps before the active span ended, each older one a step earlier
		out = append(out, particle.SpawnEntry{
			Instance:  uint32(i),
			Count:     uint32(n),
			Delay:     max(0, active-(float32(n-1)+st.Accum)*step),
			DelayStep: step,
		})
	}
	return out
}

// SpawnPerFrame emits Count particles per instance every frame
type SpawnPerFrame struct {
	Count int
}

func (f *SpawnPerFrame) Name() string { return "spawn_per_frame" }

func (f *SpawnPerFrame) AddMaxParticleCounts(c *effect.MaxParticleCounts) {
	c.Add(effect.MaxParticleCounts{PerFrame: f.Count})
}

func (f *SpawnPerFrame) Spawn(rt effect.Runtime, out []particle.SpawnEntry) []particle.SpawnEntry {
	insts := rt.Instances()
	for i, inst := range insts.Instances() {
		if inst.StartDelay > 0 || f.Count <= 0 {
			continue
		}
		out = append(out, particle.SpawnEntry{Instance: uint32(i), Count: uint32(f.Count)})
	}
	return out
}
