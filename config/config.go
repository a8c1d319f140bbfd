package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lixenwraith/pfx/parameter"
)

// Config is the particle system configuration
// Zero values are replaced by parameter defaults in Normalize
type Config struct {
	Workers        int      `toml:"workers"`
	MinFPS         float32  `toml:"min_fps"`
	MaxFPS         float32  `toml:"max_fps"`
	StabilityCheck bool     `toml:"stability_check"`
	MaxFrameTime   float32  `toml:"max_frame_time"`
	PreRunStep     float32  `toml:"prerun_step"`
	TickInterval   Duration `toml:"tick_interval"`
	LogLevel       string   `toml:"log_level"`
	GPU            bool     `toml:"gpu"`
	Audio          Audio    `toml:"audio"`
}

// Audio sizes the audio collaborator's pools at construction
type Audio struct {
	Enabled     bool     `toml:"enabled"`
	MaxVoices   int      `toml:"max_voices"`
	MaxTriggers int      `toml:"max_triggers"`
	SampleRate  int      `toml:"sample_rate"`
	Buffer      Duration `toml:"buffer"`
}

// Duration decodes TOML strings such as "16ms"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Workers:        parameter.DefaultWorkers,
		MinFPS:         parameter.MinFPS,
		MaxFPS:         parameter.MaxFPS,
		StabilityCheck: parameter.StabilityCheck,
		MaxFrameTime:   parameter.MaxFrameTime,
		PreRunStep:     parameter.PreRunStep,
		TickInterval:   Duration{parameter.FrameUpdateInterval},
		LogLevel:       "info",
		Audio: Audio{
			MaxVoices:   parameter.AudioMaxVoices,
			MaxTriggers: parameter.AudioMaxTriggers,
			SampleRate:  parameter.AudioSampleRate,
			Buffer:      Duration{parameter.AudioBufferDuration},
		},
	}
}

// Normalize fills unset fields with defaults
func (c *Config) Normalize() {
	def := Default()
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	c.Workers = min(c.Workers, parameter.MaxWorkers)
	if c.MinFPS <= 0 {
		c.MinFPS = def.MinFPS
	}
	if c.MaxFPS <= 0 {
		c.MaxFPS = def.MaxFPS
	}
	if c.MaxFrameTime <= 0 {
		c.MaxFrameTime = def.MaxFrameTime
	}
	if c.PreRunStep <= 0 {
		c.PreRunStep = def.PreRunStep
	}
	if c.TickInterval.Duration <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Audio.MaxVoices <= 0 {
		c.Audio.MaxVoices = def.Audio.MaxVoices
	}
	if c.Audio.MaxTriggers <= 0 {
		c.Audio.MaxTriggers = def.Audio.MaxTriggers
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.Audio.Buffer.Duration <= 0 {
		c.Audio.Buffer = def.Audio.Buffer
	}
}

// Validate rejects configurations the runtime cannot honor
func (c *Config) Validate() error {
	if c.MinFPS <= 0 || c.MaxFPS < c.MinFPS {
		return errors.Errorf("fps range [%g, %g] is invalid", c.MinFPS, c.MaxFPS)
	}
	if c.PreRunStep <= 0 || c.PreRunStep > c.MaxFrameTime {
		return errors.Errorf("prerun_step %g must be in (0, max_frame_time %g]", c.PreRunStep, c.MaxFrameTime)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers %d is negative", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Load reads a TOML file, fills defaults and validates
// A missing file yields the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Normalize()
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes TOML on top of the defaults
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return cfg, errors.Errorf("unknown config key %q", keys[0].String())
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}

// Save writes the configuration as TOML
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
