package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/pfx/config"
)

func testConfig(voices int) config.Audio {
	cfg := config.Default().Audio
	cfg.MaxVoices = voices
	cfg.MaxTriggers = 2
	return cfg
}

type reportLog struct {
	mu      sync.Mutex
	reports []Report
}

func (l *reportLog) add(r Report) {
	l.mu.Lock()
	l.reports = append(l.reports, r)
	l.mu.Unlock()
}

func (l *reportLog) count(kind ReportKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.reports {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

func click() Sound {
	return Sound{Wave: WaveSquare, Freq: 440, Duration: 10 * time.Millisecond, Release: 5 * time.Millisecond}
}

func TestRegisterTrigger(t *testing.T) {
	b := NewBeepSystem(testConfig(4), nil)

	a := b.RegisterTrigger("a", click())
	assert.Equal(t, TriggerID(1), a)
	assert.Equal(t, a, b.RegisterTrigger("a", click()), "re-registering returns the same id")
	assert.Equal(t, TriggerID(2), b.RegisterTrigger("b", click()))
	assert.Equal(t, InvalidTrigger, b.RegisterTrigger("c", click()), "table is sized by config")
}

func TestExecuteAndFinish(t *testing.T) {
	b := NewBeepSystem(testConfig(4), nil)
	var log reportLog
	b.OnReport(log.add)

	id := b.RegisterTrigger("click", click())
	inst, err := b.ExecuteTrigger(id)
	require.NoError(t, err)
	assert.NotZero(t, inst)
	assert.Equal(t, 1, b.Active())
	assert.Equal(t, 1, log.count(ReportStarted))

	// 10ms at 44.1kHz is 441 samples
	buf := make([][2]float64, 512)
	b.Stream(buf)
	b.Stream(buf)

	assert.Equal(t, 0, b.Active())
	assert.Equal(t, 1, log.count(ReportFinished))
}

func TestVoicePoolExhaustion(t *testing.T) {
	b := NewBeepSystem(testConfig(1), nil)
	var log reportLog
	b.OnReport(log.add)

	id := b.RegisterTrigger("click", click())
	_, err := b.ExecuteTrigger(id)
	require.NoError(t, err)

	_, err = b.ExecuteTrigger(id)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 1, log.count(ReportFailed))
	assert.Equal(t, 1, b.Active())

	b.StopAll()
	assert.Equal(t, 0, b.Active())
	_, err = b.ExecuteTrigger(id)
	assert.NoError(t, err)
}

func TestUnknownTrigger(t *testing.T) {
	b := NewBeepSystem(testConfig(1), nil)
	_, err := b.ExecuteTrigger(InvalidTrigger)
	assert.ErrorIs(t, err, ErrUnknownTrigger)
	_, err = b.ExecuteTrigger(9)
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestToneEnvelope(t *testing.T) {
	s := Sound{Wave: WaveSine, Freq: 100, Duration: 100 * time.Millisecond, Attack: 10 * time.Millisecond, Release: 10 * time.Millisecond}
	tn := newTone(s, 1000, 1)
	buf := make([][2]float64, 200)
	n, ok := tn.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 100, n)
	assert.Zero(t, buf[0][0], "attack starts silent")
	for _, v := range buf[:n] {
		assert.LessOrEqual(t, v[0], 1.0)
		assert.GreaterOrEqual(t, v[0], -1.0)
		assert.Equal(t, v[0], v[1])
	}
	n, ok = tn.Stream(buf)
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestNopSystem(t *testing.T) {
	var s System = Nop{}
	assert.Equal(t, InvalidTrigger, s.RegisterTrigger("x", click()))
	_, err := s.ExecuteTrigger(1)
	assert.NoError(t, err)
}

func TestConcurrentExecuteWhileStreaming(t *testing.T) {
	b := NewBeepSystem(testConfig(64), nil)
	var log reportLog
	b.OnReport(log.add)
	id := b.RegisterTrigger("click", click())

	stop := make(chan struct{})
	var mixer sync.WaitGroup
	mixer.Add(1)
	go func() {
		defer mixer.Done()
		buf := make([][2]float64, 64)
		for {
			select {
			case <-stop:
				return
			default:
				b.Stream(buf)
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				_, _ = b.ExecuteTrigger(id)
			}
		}()
	}
	wg.Wait()
	close(stop)
	mixer.Wait()

	assert.Equal(t, 32, log.count(ReportStarted)+log.count(ReportFailed))
	b.StopAll()
	assert.Zero(t, b.Active())
}
