package parameter

// Stock feature defaults
const (
	// ParticleMinSpeed is the default lower bound of initial speed, units per second
	ParticleMinSpeed = 2.0
	// ParticleMaxSpeed is the default upper bound of initial speed, units per second
	ParticleMaxSpeed = 6.0
	// ParticleGravity is the default downward acceleration, units per second squared
	ParticleGravity = 9.8
	// ParticleDrag is the default linear drag, 1 per second
	ParticleDrag = 0.5
	// ParticleLifetime is the default particle life, seconds
	ParticleLifetime = 1.5
	// ParticleSize is the default particle radius
	ParticleSize = 0.1
)

// Terminal rasterization
const (
	// TerminalGlyphs maps normalized age to a glyph, youngest first
	TerminalGlyphs = "@#*+:."

	// TerminalCellAspect compensates for cells being about twice as tall as wide
	TerminalCellAspect = 2.0

	// TerminalMaxPixels clamps the projected particle diameter, cells
	TerminalMaxPixels = 3
)

// GPU reference device
const (
	// SoftDeviceQueue is the pending frame queue depth before frames are dropped
	SoftDeviceQueue = 4
)
