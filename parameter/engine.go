package parameter

import "time"

// Frame loop timing
const (
	// FrameUpdateInterval is the default simulation tick (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// MaxFrameTime clamps a single dt after stalls, seconds
	MaxFrameTime = 0.1

	// PreRunStep is the fixed dt used while warming an effect up, seconds
	PreRunStep = 1.0 / 30.0

	// MaxPreRun caps the warm-up duration an effect may request, seconds
	MaxPreRun = 30.0
)

// Frame-rate interval the max-count estimator plans for
const (
	MinFPS = 4
	MaxFPS = 120
)

// Scheduler
const (
	// DefaultWorkers of 0 means one worker per available CPU
	DefaultWorkers = 0

	// MaxWorkers bounds the errgroup limit regardless of configuration
	MaxWorkers = 256
)

// StabilityCheck enables the per-frame non-finite scan by default in debug builds only
const StabilityCheck = false
