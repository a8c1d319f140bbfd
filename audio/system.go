package audio

import (
	"time"

	"github.com/pkg/errors"
)

// TriggerID names a registered sound, 0 is never valid
type TriggerID uint32

// InstanceID names one playback of a trigger
type InstanceID uint32

const InvalidTrigger TriggerID = 0

// Wave selects the oscillator shape
type Wave uint8

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// Sound is a synthesized one-shot, cheap to describe and rendered on demand
type Sound struct {
	Wave     Wave
	Freq     float64
	Duration time.Duration
	Attack   time.Duration
	Release  time.Duration
	Volume   float64
}

// ReportKind tells what happened to a playback
type ReportKind uint8

const (
	ReportStarted ReportKind = iota
	ReportFinished
	ReportFailed
)

// Result of an execute request
type Result uint8

const (
	ResultOK Result = iota
	ResultFailure
)

// Report is delivered to OnReport listeners, possibly from the audio goroutine
type Report struct {
	Kind     ReportKind
	Trigger  TriggerID
	Instance InstanceID
	Result   Result
}

// System is the register/report protocol the particle runtime talks to
type System interface {
	RegisterTrigger(name string, s Sound) TriggerID
	ExecuteTrigger(id TriggerID) (InstanceID, error)
	StopAll()
	OnReport(fn func(Report))
}

// Sentinel errors
var (
	ErrUnknownTrigger = errors.New("unknown audio trigger")
	ErrPoolExhausted  = errors.New("audio voice pool exhausted")
	ErrTriggerLimit   = errors.New("audio trigger limit reached")
)

// Nop discards every request, used when audio is disabled
type Nop struct{}

func (Nop) RegisterTrigger(string, Sound) TriggerID      { return InvalidTrigger }
func (Nop) ExecuteTrigger(TriggerID) (InstanceID, error) { return 0, nil }
func (Nop) StopAll()                                     {}
func (Nop) OnReport(func(Report))                        {}
