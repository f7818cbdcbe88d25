package vmath

import "math"

const (
	// Epsilon is the smallest magnitude treated as non-zero
	Epsilon = 1e-9
	TwoPi   = 2 * math.Pi
)

// Clamp limits v to [lo, hi]; NaN maps to lo
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1]
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// ClampInt limits v to [lo, hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp returns a + (b-a)*t
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// ExpLerp interpolates logarithmically between positive bounds lo and hi
// Used for frequency sweeps where t is perceptually linear
func ExpLerp(lo, hi, t float64) float64 {
	if lo <= 0 || hi <= 0 {
		return Lerp(lo, hi, t)
	}
	return lo * math.Pow(hi/lo, t)
}

// SafeDiv returns a/b, or 0 when |b| < Epsilon
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < Epsilon {
		return 0
	}
	return a / b
}

// FloorDiv returns floor(a/b) and the non-negative remainder for b > 0
func FloorDiv(a, b int) (q, r int) {
	q = a / b
	r = a % b
	if r < 0 {
		r += b
		q--
	}
	return q, r
}

// WrapAngle maps angle into [0, 2π)
func WrapAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	return a
}

// Finite returns v if finite, else fallback
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
