package dsp

// Stage tracks envelope phase
type Stage uint8

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// silenceLevel ends the release tail
const silenceLevel = 1e-4

// Envelope is a linear ADSR that releases automatically after Hold sustain samples
// Hold < 0 sustains until Release is called
type Envelope struct {
	stage Stage
	level float64
	pos   int

	attack, decay, release int
	sustain                float64
	Hold                   int

	releaseFrom float64
}

// NewEnvelope converts second-based times to sample counts
func NewEnvelope(sampleRate, attack, decay, sustain, release float64) Envelope {
	return Envelope{
		attack:  secondsToSamples(attack, sampleRate),
		decay:   secondsToSamples(decay, sampleRate),
		sustain: clampUnit(sustain),
		release: secondsToSamples(release, sampleRate),
	}
}

func secondsToSamples(s, sr float64) int {
	if s <= 0 || s != s {
		return 0
	}
	return int(s * sr)
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Trigger restarts from the attack stage
func (e *Envelope) Trigger() {
	e.stage = StageAttack
	e.pos = 0
	e.level = 0
}

// Release enters the release stage from the current level
func (e *Envelope) Release() {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.releaseFrom = e.level
	e.stage = StageRelease
	e.pos = 0
}

// Active reports whether the envelope still produces output
func (e *Envelope) Active() bool { return e.stage != StageIdle }

func (e *Envelope) Stage() Stage { return e.stage }

func (e *Envelope) Level() float64 { return e.level }

// Length returns the total samples of an auto-releasing envelope, -1 if it sustains forever
func (e *Envelope) Length() int {
	if e.Hold < 0 {
		return -1
	}
	return e.attack + e.decay + e.Hold + e.release
}

// Next advances one sample and returns the level
func (e *Envelope) Next() float64 {
	switch e.stage {
	case StageAttack:
		if e.attack > 0 {
			e.level = float64(e.pos) / float64(e.attack)
		} else {
			e.level = 1
		}
		e.pos++
		if e.pos >= e.attack {
			e.stage = StageDecay
			e.pos = 0
		}

	case StageDecay:
		if e.decay > 0 {
			t := float64(e.pos) / float64(e.decay)
			e.level = 1 - t*(1-e.sustain)
		} else {
			e.level = e.sustain
		}
		e.pos++
		if e.pos >= e.decay {
			e.stage = StageSustain
			e.pos = 0
		}

	case StageSustain:
		e.level = e.sustain
		if e.Hold >= 0 {
			if e.pos >= e.Hold {
				e.Release()
				return e.Next()
			}
			e.pos++
		}

	case StageRelease:
		if e.release > 0 {
			t := float64(e.pos) / float64(e.release)
			e.level = e.releaseFrom * (1 - t)
		} else {
			e.level = 0
		}
		e.pos++
		if e.pos >= e.release || e.level <= silenceLevel {
			e.stage = StageIdle
			e.level = 0
		}

	default:
		e.level = 0
	}
	return e.level
}
