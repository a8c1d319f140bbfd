package feature

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/parameter"
	"github.com/lixenwraith/pfx/particle"
)

type soundState struct {
	Trigger uint32
}

// SparkSound is played when a Sound feature leaves its sound unset
var SparkSound = audio.Sound{
	Wave:     audio.WaveSquare,
	Freq:     parameter.SparkSoundFreq,
	Duration: parameter.SparkSoundDuration,
	Attack:   parameter.SparkSoundAttack,
	Release:  parameter.SparkSoundRelease,
	Volume:   parameter.SparkSoundVolume,
}

// Sound plays a trigger on every frame in which an instance spawned particles
// The trigger id is registered per instance and kept in the instance blob
type Sound struct {
	Trigger string
	Sound   audio.Sound

	state particle.DataOffset[soundState]
}

func (f *Sound) Name() string { return "sound" }

func (f *Sound) DeclareInstanceData(l *particle.InstanceLayout) {
	f.state = particle.Declare[soundState](l, f.Name())
}

func (f *Sound) InitInstances(rt effect.Runtime, first, last int) {
	snd := f.Sound
	if snd.Duration <= 0 {
		snd = SparkSound
	}
	name := f.Trigger
	if name == "" {
		name = rt.Component().Name()
	}
	id := rt.Audio().RegisterTrigger(name, snd)
	insts := rt.Instances()
	for i := first; i < last; i++ {
		particle.InstanceData(insts, i, f.state).Trigger = uint32(id)
	}
}

func (f *Sound) InitParticles(rt effect.Runtime, r particle.Range) {
	if r.Empty() || rt.IsPreRunning() || rt.Instances().Len() == 0 {
		return
	}
	id := audio.TriggerID(particle.InstanceData(rt.Instances(), 0, f.state).Trigger)
	if id == audio.InvalidTrigger {
		return
	}
	if _, err := rt.Audio().ExecuteTrigger(id); err != nil {
		rt.Logger().Debug("sound trigger skipped", zap.String("trigger", f.Trigger), zap.Error(err))
	}
}
