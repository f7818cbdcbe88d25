package parameter

import "time"

// Tuning
const (
	// TuningA4 is the reference pitch for MIDI note 69
	TuningA4 = 440.0

	// MaxDriftCents is the pitch deviation at drift amount 1.0
	MaxDriftCents = 35.0
)

// Tempo
const (
	DefaultBPM = 110.0
	MinBPM     = 40.0
	MaxBPM     = 240.0

	// TapHistory is the number of taps averaged
	TapHistory = 4

	// TapResetGap clears the tap history
	TapResetGap = 2 * time.Second

	// BeatsPerGravityCycle sets the gravity LFO period in beats at rate 1.0
	BeatsPerGravityCycle = 4.0
)

// Euclidean defaults
const (
	DefaultEuclidHits  = 3
	DefaultEuclidSteps = 8
	MaxEuclidSteps     = 64
)
