package physics

import (
	"math"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// PointerAccel returns acceleration toward (or away from) the pointer
// Magnitude is strength / max(dist, PointerMinDistance), zero outside the radius
func PointerAccel(p Pointer, pos vmath.Vec2) vmath.Vec2 {
	if !p.Active || p.Strength <= 0 {
		return vmath.Vec2{}
	}
	delta := p.Pos.Sub(pos)
	dist := delta.Magnitude()
	if p.Radius > 0 && dist > p.Radius {
		return vmath.Vec2{}
	}
	mag := p.Strength / math.Max(dist, parameter.PointerMinDistance)
	dir := delta.Normalize()
	if p.Repel {
		mag = -mag
	}
	return dir.Scale(mag)
}

// GravityScale returns the LFO multiplier on gravity at simulation time t
// Period is BeatsPerGravityCycle beats at tempo, divided by rate
func GravityScale(lfo GravityLFO, tempo, t float64) float64 {
	if !lfo.Enabled || lfo.Rate <= 0 {
		return 1
	}
	if tempo <= 0 {
		tempo = parameter.DefaultBPM
	}
	period := parameter.BeatsPerGravityCycle * 60 / tempo / lfo.Rate
	depth := vmath.Clamp(lfo.Depth, 0, 1)
	return 1 + depth*math.Sin(vmath.TwoPi*t/period)
}
