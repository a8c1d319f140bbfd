package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lixenwraith/pfx/audio"
	"github.com/lixenwraith/pfx/config"
	"github.com/lixenwraith/pfx/core"
	"github.com/lixenwraith/pfx/engine"
	"github.com/lixenwraith/pfx/gpu"
	"github.com/lixenwraith/pfx/parameter"
	"github.com/lixenwraith/pfx/preset"
	"github.com/lixenwraith/pfx/render"
	"github.com/lixenwraith/pfx/vmath"
)

var (
	configPath = flag.String("config", "pfx.toml", "config file, watched for changes")
	logPath    = flag.String("log", "pfx-sandbox.log", "log file")
	effectName = flag.String("effect", "fireworks", "initial preset")
	scale      = flag.Float64("scale", 0.25, "world units per terminal column")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pfx-sandbox: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(path, level string) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	// The terminal belongs to tcell
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

type sandbox struct {
	sys    *engine.ParticleSystem
	loop   *engine.FrameLoop
	screen tcell.Screen
	target *render.TerminalTarget
	log    *zap.Logger

	mu      sync.Mutex
	preset  int
	palette int
	cfg     config.Config
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(*logPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	core.SetCrashHandler(screen, log)

	snd := audio.System(audio.Nop{})
	if cfg.Audio.Enabled {
		bs := audio.NewBeepSystem(cfg.Audio, log.Named("audio"))
		if err := bs.Attach(); err != nil {
			log.Warn("audio unavailable, continuing silent", zap.Error(err))
		} else {
			defer bs.Close()
			snd = bs
		}
	}

	opts := []engine.Option{engine.WithLogger(log), engine.WithAudio(snd)}
	if cfg.GPU {
		opts = append(opts, engine.WithGPU(gpu.NewSoftDevice(log.Named("gpu"))))
	}
	sys := engine.NewParticleSystem(cfg, opts...)
	defer sys.Close()

	sb := &sandbox{
		sys:    sys,
		screen: screen,
		target: render.NewTerminalTarget(screen),
		log:    log,
		cfg:    cfg,
	}
	for i, n := range preset.Names() {
		if n == *effectName {
			sb.preset = i
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core.Go(func() {
		if err := config.Watch(ctx, *configPath, log, sb.reconfigure); err != nil {
			log.Warn("config watch stopped", zap.Error(err))
		}
	})

	sb.loop = engine.NewFrameLoop(sys, nil, 0)
	sb.loop.OnFrame = sb.draw
	sb.spawn(0, 0)
	sb.loop.Start(ctx)
	defer func() {
		if err := sb.loop.Stop(); err != nil {
			log.Error("frame loop stopped", zap.Error(err))
		}
	}()

	return sb.events()
}

func (sb *sandbox) reconfigure(cfg config.Config) {
	sb.mu.Lock()
	sb.cfg = cfg
	sb.mu.Unlock()
	sb.sys.SetConfig(cfg)
}

func (sb *sandbox) camera() render.Camera {
	w, h := sb.screen.Size()
	return render.NewTerminalCamera(w, h, mgl32.Vec2{0, 4}, float32(*scale))
}

// spawn places the current preset at world (x, y)
func (sb *sandbox) spawn(x, y float32) {
	sb.mu.Lock()
	name := preset.Names()[sb.preset]
	opts := preset.Options{
		Palette: preset.Palettes[sb.palette],
		GPU:     sb.cfg.GPU,
		Sound:   sb.cfg.Audio.Enabled,
	}
	sb.mu.Unlock()

	eff, err := preset.Build(name, opts)
	if err != nil {
		sb.log.Error("build preset", zap.Error(err))
		return
	}
	if _, err := sb.sys.CreateEmitter(eff, vmath.NewQuatTS(mgl32.Vec3{x, y, 0})); err != nil {
		sb.log.Error("create emitter", zap.Error(err))
	}
}

// screenToWorld inverts the terminal camera on the z = 0 plane
func (sb *sandbox) screenToWorld(col, row int) (float32, float32) {
	w, h := sb.screen.Size()
	s := float32(*scale)
	x := (float32(col) - float32(w)/2) * s
	y := 4 - (float32(row)-float32(h)/2)*s*parameter.TerminalCellAspect
	return x, y
}

func (sb *sandbox) draw(float32) {
	pass := render.NewPass(sb.camera(), render.FlagCull|render.FlagDepthSort, parameter.TerminalMaxPixels)
	sb.sys.Render(pass)
	sb.target.Draw(pass.Elements())

	st := sb.sys.Stats()
	sb.mu.Lock()
	name := preset.Names()[sb.preset]
	pal := preset.Palettes[sb.palette].Name
	sb.mu.Unlock()
	line := fmt.Sprintf(" %s/%s  emitters:%d particles:%d faults:%d  [space] spawn [tab] preset [c] palette [k] kill [x] clear [p] pause [q] quit ",
		name, pal, len(sb.sys.Emitters()), st.Particles, st.Faults)
	_, h := sb.screen.Size()
	style := tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	for i, r := range line {
		sb.screen.SetContent(i, h-1, r, nil, style)
	}
	sb.target.Show()
}

func (sb *sandbox) events() error {
	for {
		switch ev := sb.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			sb.screen.Sync()
		case *tcell.EventMouse:
			if ev.Buttons()&tcell.Button1 != 0 {
				sb.spawn(sb.screenToWorld(ev.Position()))
			}
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return nil
			}
			sb.key(ev)
		}
	}
}

func (sb *sandbox) key(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyTab:
		sb.mu.Lock()
		sb.preset = (sb.preset + 1) % len(preset.Names())
		sb.mu.Unlock()
	case ev.Rune() == ' ':
		sb.spawn(0, 0)
	case ev.Rune() == 'c':
		sb.mu.Lock()
		sb.palette = (sb.palette + 1) % len(preset.Palettes)
		sb.mu.Unlock()
	case ev.Rune() == 'k':
		sb.sys.KillAll()
	case ev.Rune() == 'x':
		for _, e := range sb.sys.Emitters() {
			sb.sys.Remove(e)
		}
	case ev.Rune() == 'p':
		if sb.loop.Clock().IsPaused() {
			sb.loop.Resume()
		} else {
			sb.loop.Pause()
		}
	}
}
