package parameter

import "time"

// Loop Timing
const (
	// FrameUpdateInterval is the render and audio-parameter update interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// SimTickInterval is the wall-clock period of the simulation scheduler
	SimTickInterval = time.Second / SimTickRate

	// SimTickRate is simulation ticks per second
	SimTickRate = 120

	// SimStep is the conceptual timestep of one tick in seconds, before time scaling
	SimStep = 1.0 / SimTickRate
)

// Control inputs
const (
	// VisualStaleAfter reverts visual energy to defaults when the analyzer stops reporting
	VisualStaleAfter = 2 * time.Second

	// MaxTimeScale is the macro-pad time scale at x = 1
	MaxTimeScale = 2.0
)

// Persistence
const (
	// PresetSlots is the number of numbered preset files
	PresetSlots = 8

	// PresetDir is the default preset directory, relative to the working directory
	PresetDir = "presets"

	// RecordDir is where captured takes are written
	RecordDir = "recordings"

	// MaxRecording bounds one captured take
	MaxRecording = 10 * time.Minute
)
