// Package dsp holds per-sample building blocks shared by voices and the effects graph
package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// ErrUnknownName is returned when decoding an unrecognized enum name
var ErrUnknownName = errors.New("unknown name")

// FilterKind selects a biquad response
type FilterKind uint8

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

var filterNames = [...]string{"lowpass", "highpass", "bandpass"}

func (k FilterKind) String() string {
	if int(k) < len(filterNames) {
		return filterNames[k]
	}
	return "unknown"
}

// ParseFilterKind resolves a filter name, ok=false on unknown input
func ParseFilterKind(s string) (FilterKind, bool) {
	for i, name := range filterNames {
		if name == s {
			return FilterKind(i), true
		}
	}
	return Lowpass, false
}

const (
	minQ = 0.1
	maxQ = 30.0
)

// ClampFreq limits a cutoff to [MinFilterHz, NyquistFraction*sr]
func ClampFreq(freq, sampleRate float64) float64 {
	return vmath.Clamp(freq, parameter.MinFilterHz, parameter.NyquistFraction*sampleRate)
}

// Biquad is a transposed direct form II second-order section
// Coefficients follow the RBJ audio EQ cookbook
type Biquad struct {
	kind       FilterKind
	freq, q    float64
	sampleRate float64

	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

// NewBiquad creates a configured filter
func NewBiquad(kind FilterKind, sampleRate, freq, q float64) *Biquad {
	f := &Biquad{}
	f.Set(kind, sampleRate, freq, q)
	return f
}

// Set recomputes coefficients; unchanged parameters are a no-op
func (f *Biquad) Set(kind FilterKind, sampleRate, freq, q float64) {
	if sampleRate <= 0 {
		sampleRate = parameter.AudioSampleRate
	}
	freq = ClampFreq(freq, sampleRate)
	q = vmath.Clamp(q, minQ, maxQ)
	if f.b0 != 0 && kind == f.kind && freq == f.freq && q == f.q && sampleRate == f.sampleRate {
		return
	}
	f.kind, f.freq, f.q, f.sampleRate = kind, freq, q, sampleRate

	w0 := vmath.TwoPi * freq / sampleRate
	sin, cos := math.Sincos(w0)
	alpha := sin / (2 * q)
	a0 := 1 + alpha

	var b0, b1, b2 float64
	switch kind {
	case Highpass:
		b0 = (1 + cos) / 2
		b1 = -(1 + cos)
		b2 = (1 + cos) / 2
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default:
		b0 = (1 - cos) / 2
		b1 = 1 - cos
		b2 = (1 - cos) / 2
	}

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = -2 * cos / a0
	f.a2 = (1 - alpha) / a0
}

// SetFreq retunes the cutoff keeping kind and Q
func (f *Biquad) SetFreq(freq float64) {
	f.Set(f.kind, f.sampleRate, freq, f.q)
}

// Freq returns the clamped cutoff in use
func (f *Biquad) Freq() float64 { return f.freq }

// Kind returns the configured response
func (f *Biquad) Kind() FilterKind { return f.kind }

// Process filters one sample
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	if math.IsNaN(y) || math.IsInf(y, 0) {
		f.Reset()
		return 0
	}
	return y
}

// Reset clears the filter memory
func (f *Biquad) Reset() {
	f.z1, f.z2 = 0, 0
}

// StereoBiquad runs identical coefficients on two channels
type StereoBiquad struct {
	L, R Biquad
}

// NewStereoBiquad creates a configured stereo filter
func NewStereoBiquad(kind FilterKind, sampleRate, freq, q float64) *StereoBiquad {
	s := &StereoBiquad{}
	s.Set(kind, sampleRate, freq, q)
	return s
}

func (s *StereoBiquad) Set(kind FilterKind, sampleRate, freq, q float64) {
	s.L.Set(kind, sampleRate, freq, q)
	s.R.Set(kind, sampleRate, freq, q)
}

func (s *StereoBiquad) SetFreq(freq float64) {
	s.L.SetFreq(freq)
	s.R.SetFreq(freq)
}

func (s *StereoBiquad) Process(l, r float64) (float64, float64) {
	return s.L.Process(l), s.R.Process(r)
}

func (s *StereoBiquad) Reset() {
	s.L.Reset()
	s.R.Reset()
}

func (k FilterKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FilterKind) UnmarshalText(b []byte) error {
	v, ok := ParseFilterKind(string(b))
	if !ok {
		return fmt.Errorf("%w: filter %q", ErrUnknownName, b)
	}
	*k = v
	return nil
}
