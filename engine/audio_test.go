package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/effect"
	"github.com/lixenwraith/pfx/feature"
)

func soundEffect(t *testing.T, trigger string) *effect.Effect {
	t.Helper()
	eff := effect.NewEffect("sound-" + trigger)
	eff.MustAdd(effect.ComponentConfig{
		Name: "spark",
		Features: []effect.Feature{
			&feature.SpawnRate{Rate: 64},
			&feature.Lifetime{Min: testDT, Max: testDT},
			&feature.Location{},
			&feature.Sound{Trigger: trigger},
		},
	})
	require.NoError(t, eff.Compile())
	return eff
}

// Runtimes on different workers trigger sounds while the output side pulls samples
func TestSoundEmittersWhileStreaming(t *testing.T) {
	snd := audio.NewBeepSystem(config.Default().Audio, zaptest.NewLogger(t))
	defer snd.Close()
	var started, failed atomic.Int64
	snd.OnReport(func(r audio.Report) {
		switch r.Kind {
		case audio.ReportStarted:
			started.Add(1)
		case audio.ReportFailed:
			failed.Add(1)
		}
	})

	sys := newTestSystem(t, WithAudio(snd))
	for _, name := range []string{"left", "right"} {
		_, err := sys.CreateSeededEmitter(soundEffect(t, name), at(0, 0, 0), 1)
		require.NoError(t, err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([][2]float64, 256)
		for {
			select {
			case <-stop:
				return
			default:
				snd.Stream(buf)
			}
		}
	}()

	const frames = 30
	for i := 0; i < frames; i++ {
		require.NoError(t, sys.Update(context.Background(), testDT))
	}
	close(stop)
	wg.Wait()

	assert.EqualValues(t, 2*frames, started.Load()+failed.Load())
	assert.EqualValues(t, 0, sys.Stats().Faults)
}
