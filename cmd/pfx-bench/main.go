package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/engine"
	"github.com/lixenwraith/pfx/gpu"
	"github.com/lixenwraith/pfx/preset"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/status"
	"github.com/lixenwraith/pfx/vmath"
)

var (
	effectName = flag.String("effect", "fountain", "preset to instantiate")
	emitters   = flag.Int("emitters", 64, "emitters to place")
	frames     = flag.Int("frames", 600, "frames to simulate")
	dt         = flag.Float64("dt", 1.0/60, "frame time, seconds")
	workers    = flag.Int("workers", 0, "scheduler workers, 0 for one per CPU")
	useGPU     = flag.Bool("gpu", false, "run GPU components on the software device")
	renderOn   = flag.Bool("render", true, "compute vertices every frame")
	mode       = flag.String("profile", "off", "profile: cpu|mem|block|off")
	metrics    = flag.Bool("metrics", true, "dump Prometheus text metrics at the end")
	format     = flag.String("format", "table", "result format: table|json")
)

// result is the per-run summary printed on stdout
type result struct {
	Run            string        `json:"run"`
	Effect         string        `json:"effect"`
	Emitters       int           `json:"emitters"`
	Frames         int           `json:"frames"`
	Workers        int           `json:"workers"`
	Particles      int64         `json:"particles"`
	Spawned        int64         `json:"spawned"`
	Removed        int64         `json:"removed"`
	Faults         int64         `json:"faults"`
	SimPerFrame    time.Duration `json:"sim_per_frame_ns"`
	RenderPerFrame time.Duration `json:"render_per_frame_ns"`
	HeapAllocs     int64         `json:"heap_allocs"`
	HeapReuses     int64         `json:"heap_reuses"`
}

func main() {
	flag.Parse()

	switch *mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "block":
		defer profile.Start(profile.BlockProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pfx-bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	runID := uuid.New()
	log = log.With(zap.String("run", runID.String()))

	cfg := config.Default()
	cfg.Workers = *workers
	cfg.GPU = *useGPU
	reg := status.NewRegistry()

	opts := []engine.Option{engine.WithLogger(log), engine.WithRegistry(reg)}
	if cfg.GPU {
		opts = append(opts, engine.WithGPU(gpu.NewSoftDevice(log.Named("gpu"))))
	}
	sys := engine.NewParticleSystem(cfg, opts...)
	defer sys.Close()

	for i := 0; i < *emitters; i++ {
		eff, err := preset.Build(*effectName, preset.Options{GPU: cfg.GPU})
		if err != nil {
			return err
		}
		loc := vmath.NewQuatTS(mgl32.Vec3{float32(i%8) * 4, float32(i/8) * 4, 0})
		if _, err := sys.CreateSeededEmitter(eff, loc, uint64(i)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pass := render.NewPass(render.NewOrthoCamera(320, 200, mgl32.Vec2{14, 14}, 0.2), render.FlagCull, 0)
	var simTotal, renderTotal time.Duration
	done := 0
	for ; done < *frames; done++ {
		t0 := time.Now()
		if err := sys.Update(ctx, float32(*dt)); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		t1 := time.Now()
		simTotal += t1.Sub(t0)
		if *renderOn {
			pass.Reset()
			sys.Render(pass)
			renderTotal += time.Since(t1)
		}
	}

	st := sys.Stats()
	heap := sys.Heap().Stats()
	res := result{
		Run:            runID.String(),
		Effect:         *effectName,
		Emitters:       *emitters,
		Frames:         done,
		Workers:        sys.Scheduler().Workers(),
		Particles:      st.Particles,
		Spawned:        st.Spawned,
		Removed:        st.Removed,
		Faults:         st.Faults,
		SimPerFrame:    perFrame(simTotal, done),
		RenderPerFrame: perFrame(renderTotal, done),
		HeapAllocs:     heap.Allocs,
		HeapReuses:     heap.Reuses,
	}
	log.Info("benchmark finished",
		zap.String("effect", res.Effect),
		zap.Int("frames", res.Frames),
		zap.Duration("sim_per_frame", res.SimPerFrame),
		zap.Duration("render_per_frame", res.RenderPerFrame),
	)
	if err := printResult(res); err != nil {
		return err
	}

	if *metrics {
		return dumpMetrics(reg)
	}
	return nil
}

func perFrame(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func printResult(res result) error {
	switch *format {
	case "json":
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table":
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("metric", "value")
		rows := [][]string{
			{"effect", res.Effect},
			{"emitters", strconv.Itoa(res.Emitters)},
			{"frames", strconv.Itoa(res.Frames)},
			{"workers", strconv.Itoa(res.Workers)},
			{"particles", strconv.FormatInt(res.Particles, 10)},
			{"spawned", strconv.FormatInt(res.Spawned, 10)},
			{"removed", strconv.FormatInt(res.Removed, 10)},
			{"faults", strconv.FormatInt(res.Faults, 10)},
			{"sim/frame", res.SimPerFrame.String()},
			{"render/frame", res.RenderPerFrame.String()},
			{"heap allocs", strconv.FormatInt(res.HeapAllocs, 10)},
			{"heap reuses", strconv.FormatInt(res.HeapReuses, 10)},
		}
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func dumpMetrics(reg *status.Registry) error {
	pr := prometheus.NewRegistry()
	if err := pr.Register(status.NewCollector(reg, "")); err != nil {
		return err
	}
	families, err := pr.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
