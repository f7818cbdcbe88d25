package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100
	AudioChannels   = 2

	// AudioBufferDuration determines speaker latency
	AudioBufferDuration = 50 * time.Millisecond
)

// Polyphony and headroom
const (
	// MaxPolyphony is the ceiling of simultaneously sounding voices
	MaxPolyphony = 24

	// VoiceBaseGain is the per-voice level before headroom scaling
	VoiceBaseGain = 0.5

	// MaxVoiceDuration bounds any single voice regardless of envelope settings
	MaxVoiceDuration = 6 * time.Second
)

// Trigger resolution
const (
	// JumpChance is the probability of an extra scale-degree jump on body impacts
	JumpChance = 0.04

	// JumpDegrees is the size of that jump
	JumpDegrees = 7

	// DegreesPerEdge maps an edge index to a scale degree
	DegreesPerEdge = 2

	// StutterMotion is the visual motion above which sample playback stutters
	StutterMotion = 0.6

	// StutterLength is the looped head of a stuttering sample
	StutterLength = 45 * time.Millisecond

	// MaxStutterRepeats is the loop count at full motion
	MaxStutterRepeats = 6

	// SpeedForFullVelocity maps impact speed to velocity 1.0
	SpeedForFullVelocity = 600.0

	// MinVelocity keeps soft impacts audible
	MinVelocity = 0.15
)

// Synth filter mapping
const (
	FilterMinHz          = 20.0
	FilterMaxHz          = 18000.0
	HighpassCeilingHz    = 1200.0
	BandpassOctaveSpread = 2.0
	FMMaxIndex           = 6.0
	SubOscLevel          = 0.5
)

// Granular model
const (
	GrainCount       = 6
	GrainMinDuration = 40 * time.Millisecond
	GrainMaxDuration = 120 * time.Millisecond
	GrainJitter      = 20 * time.Millisecond
	GrainSpread      = 240 * time.Millisecond
)

// Drum model
const (
	KickDecay       = 350 * time.Millisecond
	KickStartFreq   = 150.0
	KickEndFreq     = 42.0
	ClickDecay      = 40 * time.Millisecond
	KickSaturation  = 2.0
	GlitchDecay     = 90 * time.Millisecond
	PercussionDecay = 70 * time.Millisecond
)

// Sends
const (
	// ReverbSendMax and DelaySendMax are send levels at Time macro 1.0
	ReverbSendMax = 0.6
	DelaySendMax  = 0.45

	// SendFloor is the always-on send at Time macro 0
	SendFloor = 0.05
)

// Patch safety
const (
	// MaxTension is the physical-model tension above which a patch is replaced by the default
	MaxTension = 0.95

	MaxOctave       = 8
	MaxAttack       = 2.0 // seconds
	MaxDecay        = 4.0
	MaxRelease      = 4.0
	MinEnvelope     = 0.001
	MinFilterQ      = 0.1
	MaxFilterQ      = 20.0
	DefaultRackSize = 4 // body instrument slots in a fresh rack
)
