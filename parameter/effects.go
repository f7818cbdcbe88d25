package parameter

import "time"

// Multiband split
const (
	LowBandHz  = 250.0
	HighBandHz = 4000.0
)

// Compressors: threshold dB, ratio, attack, release
const (
	LowCompThreshold  = -18.0
	LowCompRatio      = 2.0
	LowCompAttack     = 30 * time.Millisecond
	LowCompRelease    = 250 * time.Millisecond
	MidCompThreshold  = -20.0
	MidCompRatio      = 3.0
	MidCompAttack     = 8 * time.Millisecond
	MidCompRelease    = 120 * time.Millisecond
	HighCompThreshold = -22.0
	HighCompRatio     = 2.5
	HighCompAttack    = 3 * time.Millisecond
	HighCompRelease   = 80 * time.Millisecond
)

// Saturation
const SaturationDrive = 1.6

// Flux chain
const (
	TapeMaxDelay        = 250 * time.Millisecond
	TapeDarkHz          = 500.0
	FractureMinDelay    = 4 * time.Millisecond
	FractureMaxDelay    = 40 * time.Millisecond
	FractureMaxFeedback = 0.95
	VoltageMaxGain      = 24.0
	DimensionDelayL     = 11 * time.Millisecond
	DimensionDelayR     = 17 * time.Millisecond
	DimensionModDepth   = 2 * time.Millisecond
	DimensionModRate    = 0.3
	PrismMinHz          = 40.0
	PrismMaxHz          = 2400.0
	FluxSmoothing       = 40 * time.Millisecond
)

// Sends
const (
	ReverbLength        = 1800 * time.Millisecond
	ReverbDecay         = 3.2 // exponential decay constant over the IR
	ReverbBlock         = 512
	DelayMaxTime        = 2 * time.Second
	DelayBeats          = 0.75 // dotted eighth
	DelayMaxFeedback    = 0.85
	DelayFeedbackLowHz  = 180.0
	DelayFeedbackHighHz = 4500.0
)

// Bed
const (
	DroneOctave    = 2
	DroneDetune    = 0.006
	DroneLFORate   = 0.13
	DroneCutoffHz  = 900.0
	NoiseBedHz     = 1200.0
	NoiseBedQ      = 0.7
	BedSmoothing   = 300 * time.Millisecond
	MaxBedLevel    = 0.5
	ParamSmoothing = 50 * time.Millisecond
)

// Safety clamps
const (
	MinFilterHz     = 20.0
	NyquistFraction = 0.45
	OutputCeiling   = 0.98
)

// Modulation ranges applied by the control loop
const (
	// Visual energy sweeps reverb return and delay feedback across these ranges
	ReverbReturnMin   = 0.2
	ReverbReturnMax   = 0.7
	EnergyFeedbackMin = 0.2
	EnergyFeedbackMax = 0.6

	// Chaos replaces the energy feedback and scales the global filter down to ChaosFilterFloor
	ChaosFeedbackMin = 0.1
	ChaosFeedbackMax = 0.8
	ChaosFilterFloor = 0.35

	// ChaosStepsPerSecond is attractor integration steps per wall-clock second
	ChaosStepsPerSecond = 40
)
