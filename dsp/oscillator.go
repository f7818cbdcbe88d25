package dsp

import (
	"fmt"
	"math"

	"github.com/lixenwraith/ricochet/vmath"
)

// Waveform defines oscillator wave shapes
type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

var waveNames = [...]string{"sine", "square", "saw", "triangle", "noise"}

func (w Waveform) String() string {
	if int(w) < len(waveNames) {
		return waveNames[w]
	}
	return "unknown"
}

// ParseWaveform resolves a waveform name, ok=false on unknown input
func ParseWaveform(s string) (Waveform, bool) {
	for i, name := range waveNames {
		if name == s {
			return Waveform(i), true
		}
	}
	return WaveSine, false
}

// Oscillator is a phase-accumulating generator with phase-modulation input
type Oscillator struct {
	wave  Waveform
	phase float64 // [0,1)
	inc   float64
	rng   *vmath.FastRand
}

// NewOscillator creates an oscillator; seed only affects WaveNoise
func NewOscillator(wave Waveform, freq, sampleRate float64, seed uint64) Oscillator {
	o := Oscillator{wave: wave, rng: vmath.NewFastRand(seed)}
	o.SetFreq(freq, sampleRate)
	return o
}

// SetFreq sets frequency in Hz; negative and non-finite values stop the phase
func (o *Oscillator) SetFreq(freq, sampleRate float64) {
	if sampleRate <= 0 || freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		o.inc = 0
		return
	}
	o.inc = freq / sampleRate
}

// Next returns one sample in [-1, 1]
func (o *Oscillator) Next() float64 {
	return o.NextPM(0)
}

// NextPM returns one sample with phase offset pm in radians
func (o *Oscillator) NextPM(pm float64) float64 {
	p := o.phase + pm/vmath.TwoPi
	p -= math.Floor(p)

	var val float64
	switch o.wave {
	case WaveSquare:
		if p < 0.5 {
			val = 1
		} else {
			val = -1
		}
	case WaveSaw:
		val = 2 * (p - 0.5)
	case WaveTriangle:
		val = 1 - 4*math.Abs(p-0.5)
	case WaveNoise:
		val = o.rng.Bipolar()
	default:
		val = math.Sin(vmath.TwoPi * p)
	}

	o.phase += o.inc
	o.phase -= math.Floor(o.phase)
	return val
}

func (w Waveform) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Waveform) UnmarshalText(b []byte) error {
	v, ok := ParseWaveform(string(b))
	if !ok {
		return fmt.Errorf("%w: waveform %q", ErrUnknownName, b)
	}
	*w = v
	return nil
}
