package physics

import "github.com/lixenwraith/ricochet/vmath"

// Contact is one resolved wall penetration
type Contact struct {
	Edge int
	// Normal points into the container
	Normal vmath.Vec2
	// Depth is penetration before resolution
	Depth float64
	// NormalSpeed is the incoming velocity along Normal, negative when moving into the wall
	NormalSpeed float64
}

// ResolveEdge pushes a circle out of a half-plane edge and reflects its normal velocity
// Returns ok=false when the circle does not touch the edge
func ResolveEdge(pos, vel *vmath.Vec2, radius, restitution float64, e vmath.Edge) (Contact, bool) {
	if e.Inward == (vmath.Vec2{}) {
		return Contact{}, false
	}
	d := e.SignedDistance(*pos)
	if d >= radius {
		return Contact{}, false
	}
	c := Contact{Normal: e.Inward, Depth: radius - d}
	*pos = pos.Add(e.Inward.Scale(c.Depth))
	c.NormalSpeed = vel.Dot(e.Inward)
	if c.NormalSpeed < 0 {
		*vel = vel.Sub(e.Inward.Scale((1 + restitution) * c.NormalSpeed))
	}
	return c, true
}

// ResolveSegment pushes a circle out of a finite segment using closest-point distance
// inside selects which side of the segment the circle belongs to
func ResolveSegment(pos, vel *vmath.Vec2, radius, restitution float64, e vmath.Edge, inside bool) (Contact, bool) {
	dist, closest := vmath.PointSegmentDistance(*pos, e.A, e.B)
	if inside && dist >= radius {
		return Contact{}, false
	}

	var n vmath.Vec2
	if dist < vmath.Epsilon {
		n = e.Inward
	} else {
		n = pos.Sub(closest).Scale(1 / dist)
		if !inside {
			n = n.Scale(-1)
		}
	}
	if n == (vmath.Vec2{}) {
		return Contact{}, false
	}

	depth := radius - dist
	if !inside {
		depth = radius + dist
	}
	c := Contact{Normal: n, Depth: depth}
	*pos = closest.Add(n.Scale(radius))
	c.NormalSpeed = vel.Dot(n)
	if c.NormalSpeed < 0 {
		*vel = vel.Sub(n.Scale((1 + restitution) * c.NormalSpeed))
	}
	return c, true
}
