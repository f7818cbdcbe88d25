package vmath

import "math"

// Edge is a boundary segment with its unit normal pointing into the shape
type Edge struct {
	A, B   Vec2
	Inward Vec2
}

// RegularPolygon returns counter-clockwise vertices of a regular polygon centered at origin
// sides < 3 is clamped to a triangle, non-positive radius to Epsilon
func RegularPolygon(sides int, radius, rotation float64) []Vec2 {
	return AppendRegularPolygon(nil, sides, radius, rotation)
}

// AppendRegularPolygon appends the vertices of RegularPolygon to dst
func AppendRegularPolygon(dst []Vec2, sides int, radius, rotation float64) []Vec2 {
	if sides < 3 {
		sides = 3
	}
	if radius < Epsilon {
		radius = Epsilon
	}
	step := TwoPi / float64(sides)
	for i := 0; i < sides; i++ {
		sin, cos := math.Sincos(rotation + float64(i)*step)
		dst = append(dst, Vec2{cos * radius, sin * radius})
	}
	return dst
}

// Star returns counter-clockwise vertices alternating outer and inner radius
// innerRatio is clamped to (0, 1]; points < 3 is clamped to 3
func Star(points int, radius, innerRatio, rotation float64) []Vec2 {
	return AppendStar(nil, points, radius, innerRatio, rotation)
}

// AppendStar appends the vertices of Star to dst
func AppendStar(dst []Vec2, points int, radius, innerRatio, rotation float64) []Vec2 {
	if points < 3 {
		points = 3
	}
	if radius < Epsilon {
		radius = Epsilon
	}
	innerRatio = Clamp(innerRatio, 0.05, 1)
	step := math.Pi / float64(points)
	for i := 0; i < points*2; i++ {
		r := radius
		if i%2 == 1 {
			r = radius * innerRatio
		}
		sin, cos := math.Sincos(rotation + float64(i)*step)
		dst = append(dst, Vec2{cos * r, sin * r})
	}
	return dst
}

// Edges builds closed edges from counter-clockwise vertices
// Degenerate zero-length edges keep a zero normal and never collide
func Edges(verts []Vec2) []Edge {
	if len(verts) < 2 {
		return nil
	}
	return AppendEdges(nil, verts)
}

// AppendEdges appends the closed edges of verts to dst
func AppendEdges(dst []Edge, verts []Vec2) []Edge {
	n := len(verts)
	if n < 2 {
		return dst
	}
	for i := range verts {
		a := verts[i]
		b := verts[(i+1)%n]
		dst = append(dst, Edge{A: a, B: b, Inward: b.Sub(a).Perpendicular().Normalize()})
	}
	return dst
}

// SignedDistance returns distance from p to the edge line, positive on the inward side
func (e Edge) SignedDistance(p Vec2) float64 {
	return p.Sub(e.A).Dot(e.Inward)
}

// PointSegmentDistance returns the distance from p to segment ab and the closest point
// A degenerate segment reduces to point distance
func PointSegmentDistance(p, a, b Vec2) (float64, Vec2) {
	ab := b.Sub(a)
	lenSq := ab.MagnitudeSq()
	if lenSq < Epsilon {
		return p.Distance(a), a
	}
	t := Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	closest := a.Add(ab.Scale(t))
	return p.Distance(closest), closest
}

// InscribedRadius returns the apothem of a regular polygon with circumradius r
func InscribedRadius(sides int, r float64) float64 {
	if sides < 3 {
		sides = 3
	}
	return r * math.Cos(math.Pi/float64(sides))
}
