// Package chaos provides a Lorenz attractor used as a slow control-signal source
package chaos

import (
	"math"

	"github.com/lixenwraith/ricochet/vmath"
)

// Classic attractor constants and integration step
const (
	Sigma = 10.0
	Rho   = 28.0
	Beta  = 8.0 / 3.0
	Step  = 0.005
)

// Normalization ranges covering the attractor's observed extent
const (
	xSpan = 22.0
	zMin  = 2.0
	zMax  = 50.0
)

// State is one point of the three-variable system
type State struct {
	X, Y, Z float64
}

// Lorenz integrates the Lorenz system with fixed-step RK4
// Deterministic for a given seed; not safe for concurrent use
type Lorenz struct {
	s State
}

// NewLorenz creates an attractor with initial conditions perturbed by seed
func NewLorenz(seed uint64) *Lorenz {
	rng := vmath.NewFastRand(seed)
	return &Lorenz{s: State{
		X: 0.1 + rng.Bipolar()*0.05,
		Y: 0.0 + rng.Bipolar()*0.05,
		Z: 20 + rng.Bipolar()*0.05,
	}}
}

func deriv(s State) State {
	return State{
		X: Sigma * (s.Y - s.X),
		Y: s.X*(Rho-s.Z) - s.Y,
		Z: s.X*s.Y - Beta*s.Z,
	}
}

func add(a, b State, k float64) State {
	return State{a.X + b.X*k, a.Y + b.Y*k, a.Z + b.Z*k}
}

// Advance integrates n fixed steps and returns the new state
func (l *Lorenz) Advance(n int) State {
	for i := 0; i < n; i++ {
		s := l.s
		k1 := deriv(s)
		k2 := deriv(add(s, k1, Step/2))
		k3 := deriv(add(s, k2, Step/2))
		k4 := deriv(add(s, k3, Step))
		next := State{
			X: s.X + Step/6*(k1.X+2*k2.X+2*k3.X+k4.X),
			Y: s.Y + Step/6*(k1.Y+2*k2.Y+2*k3.Y+k4.Y),
			Z: s.Z + Step/6*(k1.Z+2*k2.Z+2*k3.Z+k4.Z),
		}
		if !finite(next) {
			next = State{X: 0.1, Y: 0, Z: 20}
		}
		l.s = next
	}
	return l.s
}

// State returns the current point
func (l *Lorenz) State() State { return l.s }

// Control maps X and Z to [0,1] for filter and delay-feedback modulation
func (l *Lorenz) Control() (filter, feedback float64) {
	filter = vmath.Clamp01((l.s.X + xSpan) / (2 * xSpan))
	feedback = vmath.Clamp01((l.s.Z - zMin) / (zMax - zMin))
	return filter, feedback
}

func finite(s State) bool {
	for _, v := range [3]float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
