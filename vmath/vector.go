package vmath

import "math"

// Vec2 is a 2D point or velocity
type Vec2 struct {
	X, Y float64
}

// V returns a Vec2
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Scale multiplies vector by scalar factor
func (a Vec2) Scale(f float64) Vec2 { return Vec2{a.X * f, a.Y * f} }

// Dot returns x1*x2 + y1*y2
func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the z component of the 3D cross product
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// Magnitude returns Euclidean length
func (a Vec2) Magnitude() float64 { return math.Hypot(a.X, a.Y) }

// MagnitudeSq returns squared magnitude without sqrt
func (a Vec2) MagnitudeSq() float64 { return a.X*a.X + a.Y*a.Y }

// Distance returns Euclidean distance between two points
func (a Vec2) Distance(b Vec2) float64 { return a.Sub(b).Magnitude() }

// Normalize returns unit vector, zero-safe
// Magnitudes below Epsilon return the zero vector
func (a Vec2) Normalize() Vec2 {
	mag := a.Magnitude()
	if mag < Epsilon {
		return Vec2{}
	}
	return Vec2{a.X / mag, a.Y / mag}
}

// ClampMagnitude limits vector to maxMag while preserving direction
// Returns unchanged vector if magnitude <= maxMag
func (a Vec2) ClampMagnitude(maxMag float64) Vec2 {
	if maxMag <= 0 {
		return Vec2{}
	}
	mag := a.Magnitude()
	if mag <= maxMag || mag == 0 {
		return a
	}
	return a.Scale(maxMag / mag)
}

// SetMagnitude rescales the vector to length mag; zero vector stays zero
func (a Vec2) SetMagnitude(mag float64) Vec2 {
	return a.Normalize().Scale(mag)
}

// Rotate rotates vector by angle in radians
func (a Vec2) Rotate(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{a.X*cos - a.Y*sin, a.X*sin + a.Y*cos}
}

// Perpendicular returns vector rotated 90° counter-clockwise
func (a Vec2) Perpendicular() Vec2 { return Vec2{-a.Y, a.X} }

// Reflect returns velocity reflected off surface with given unit normal
// vel' = vel - 2 * dot(vel, normal) * normal
func (a Vec2) Reflect(normal Vec2) Vec2 {
	return a.Sub(normal.Scale(2 * a.Dot(normal)))
}

// Lerp interpolates between a and b by t
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// IsFinite reports whether both components are finite
func (a Vec2) IsFinite() bool {
	return !math.IsNaN(a.X) && !math.IsNaN(a.Y) && !math.IsInf(a.X, 0) && !math.IsInf(a.Y, 0)
}
