package dsp

import (
	"math"
	"time"
)

// snapThreshold is the distance at which a smoother lands exactly on its target
// Without it the approach parks on a subnormal and bypass checks for 0 never match
const snapThreshold = 1e-9

// Smoother is a one-pole lowpass on a control value
// Target changes never produce steps in the output
type Smoother struct {
	value, target float64
	coef          float64
}

// NewSmoother creates a smoother reaching ~63% of a step in tau
func NewSmoother(sampleRate float64, tau time.Duration, initial float64) Smoother {
	s := Smoother{value: initial, target: initial}
	if n := tau.Seconds() * sampleRate; n > 0 {
		s.coef = math.Exp(-1 / n)
	}
	return s
}

// SetTarget changes the destination value; non-finite targets are ignored
func (s *Smoother) SetTarget(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.target = v
}

// Snap jumps to v without smoothing
func (s *Smoother) Snap(v float64) {
	s.value, s.target = v, v
}

// Next advances one sample
func (s *Smoother) Next() float64 {
	d := s.value - s.target
	if math.Abs(d) < snapThreshold {
		s.value = s.target
		return s.value
	}
	s.value = s.target + s.coef*d
	return s.value
}

func (s *Smoother) Value() float64  { return s.value }
func (s *Smoother) Target() float64 { return s.target }
