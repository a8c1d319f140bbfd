package audio

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/config"
)

type trigger struct {
	name  string
	sound Sound
}

// BeepSystem plays triggers through a beep mixer
// Pool sizes are fixed at construction; without Attach the mixer is only drained by Stream
// The mixer is touched only under mixMu, both by callers and by the speaker goroutine
type BeepSystem struct {
	cfg  config.Audio
	log  *zap.Logger
	rate beep.SampleRate

	mixMu sync.Mutex
	mixer *beep.Mixer

	mu        sync.Mutex
	triggers  []trigger
	listeners []func(Report)
	attached  bool

	active   atomic.Int32
	instance atomic.Uint32
}

// NewBeepSystem builds an audio system sized from cfg
func NewBeepSystem(cfg config.Audio, log *zap.Logger) *BeepSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &BeepSystem{
		cfg:   cfg,
		log:   log,
		rate:  beep.SampleRate(cfg.SampleRate),
		mixer: &beep.Mixer{},
	}
}

// Attach opens the speaker and starts playing the mixer
// Failure leaves the system usable but silent
func (b *BeepSystem) Attach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return nil
	}
	if err := speaker.Init(b.rate, b.rate.N(b.cfg.Buffer.Duration)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	speaker.Play(mixStream{b})
	b.attached = true
	return nil
}

// RegisterTrigger stores a sound and returns its id, InvalidTrigger when the table is full
func (b *BeepSystem) RegisterTrigger(name string, s Sound) TriggerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, t := range b.triggers {
		if t.name == name {
			b.triggers[i].sound = s
			return TriggerID(i + 1)
		}
	}
	if len(b.triggers) >= b.cfg.MaxTriggers {
		b.log.Warn("audio trigger table full", zap.String("trigger", name), zap.Int("max", b.cfg.MaxTriggers))
		return InvalidTrigger
	}
	b.triggers = append(b.triggers, trigger{name: name, sound: s})
	return TriggerID(len(b.triggers))
}

// ExecuteTrigger starts one playback; an exhausted voice pool reports ResultFailure
func (b *BeepSystem) ExecuteTrigger(id TriggerID) (InstanceID, error) {
	b.mu.Lock()
	if id == InvalidTrigger || int(id) > len(b.triggers) {
		b.mu.Unlock()
		return 0, errors.Wrapf(ErrUnknownTrigger, "trigger %d", id)
	}
	sound := b.triggers[id-1].sound
	b.mu.Unlock()

	inst := InstanceID(b.instance.Add(1))
	if int(b.active.Add(1)) > b.cfg.MaxVoices {
		b.active.Add(-1)
		b.report(Report{Kind: ReportFailed, Trigger: id, Instance: inst, Result: ResultFailure})
		return 0, ErrPoolExhausted
	}

	done := beep.Callback(func() {
		b.active.Add(-1)
		b.report(Report{Kind: ReportFinished, Trigger: id, Instance: inst, Result: ResultOK})
	})
	stream := beep.Seq(newTone(sound, b.rate, uint64(inst)), done)

	b.mixMu.Lock()
	b.mixer.Add(stream)
	b.mixMu.Unlock()

	b.report(Report{Kind: ReportStarted, Trigger: id, Instance: inst, Result: ResultOK})
	return inst, nil
}

// StopAll drops every playing sound; dropped sounds never report Finished
func (b *BeepSystem) StopAll() {
	b.mixMu.Lock()
	b.mixer.Clear()
	b.mixMu.Unlock()
	b.active.Store(0)
}

// OnReport adds a listener; listeners may be called from the audio goroutine while the mixer is
// locked, so they must not call back into the system
func (b *BeepSystem) OnReport(fn func(Report)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Active returns the number of playing voices
func (b *BeepSystem) Active() int { return int(b.active.Load()) }

// Stream pulls samples from the mixer directly, for headless use and tests
func (b *BeepSystem) Stream(samples [][2]float64) (int, bool) {
	b.mixMu.Lock()
	defer b.mixMu.Unlock()
	return b.mixer.Stream(samples)
}

// Close stops playback and detaches from the speaker
func (b *BeepSystem) Close() {
	b.StopAll()
	b.mu.Lock()
	attached := b.attached
	b.attached = false
	b.mu.Unlock()
	if attached {
		speaker.Clear()
	}
}

func (b *BeepSystem) report(r Report) {
	b.mu.Lock()
	listeners := b.listeners
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(r)
	}
}

// mixStream is what the speaker plays: the mixer behind the system's lock
type mixStream struct{ b *BeepSystem }

func (m mixStream) Stream(samples [][2]float64) (int, bool) { return m.b.Stream(samples) }

func (m mixStream) Err() error { return nil }

var _ System = (*BeepSystem)(nil)
