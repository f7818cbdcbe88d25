package physics

import (
	"math"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Boundary is the container outline for the current tick
type Boundary struct {
	Shape    Shape
	Vertices []vmath.Vec2
	Edges    []vmath.Edge
	Radius   float64
	// SafeRadius is the largest circle fully inside the outline
	SafeRadius float64
	Rotation   float64
	sides      int
}

// sanitizeBoundary clamps a boundary config to buildable values
func sanitizeBoundary(cfg BoundaryConfig) BoundaryConfig {
	cfg.Sides = vmath.ClampInt(cfg.Sides, 3, 64)
	cfg.Radius = vmath.Finite(cfg.Radius, parameter.DefaultBoundary)
	if cfg.Radius < parameter.MinBoundary {
		cfg.Radius = parameter.MinBoundary
	}
	cfg.InnerRatio = vmath.Clamp(vmath.Finite(cfg.InnerRatio, parameter.DefaultStarInner), 0.2, 0.95)
	cfg.RotationSpeed = vmath.Finite(cfg.RotationSpeed, 0)
	if cfg.Shape > ShapeStar {
		cfg.Shape = ShapePolygon
	}
	return cfg
}

// rebuild recomputes geometry in place, reusing slices
func (b *Boundary) rebuild(cfg BoundaryConfig, rotation float64) {
	if cfg.Shape == ShapeStar {
		b.Vertices = vmath.AppendStar(b.Vertices[:0], cfg.Sides, cfg.Radius, cfg.InnerRatio, rotation)
	} else {
		b.Vertices = vmath.AppendRegularPolygon(b.Vertices[:0], cfg.Sides, cfg.Radius, rotation)
	}
	b.Shape = cfg.Shape
	b.Edges = vmath.AppendEdges(b.Edges[:0], b.Vertices)

	// Distance to the nearest edge line bounds the inscribed circle for star-shaped outlines
	b.SafeRadius = cfg.Radius
	for _, e := range b.Edges {
		if d := e.SignedDistance(vmath.Vec2{}); d > 0 && d < b.SafeRadius {
			b.SafeRadius = d
		}
	}
	b.Radius = cfg.Radius
	b.Rotation = rotation
	b.sides = len(b.Edges)
}

// EdgeAt returns the edge index whose angular sector contains p
func (b *Boundary) EdgeAt(p vmath.Vec2) int {
	if b.sides == 0 {
		return 0
	}
	angle := vmath.WrapAngle(math.Atan2(p.Y, p.X) - b.Rotation)
	idx := int(angle / (vmath.TwoPi / float64(b.sides)))
	return vmath.ClampInt(idx, 0, b.sides-1)
}

// Contains reports whether p is inside the outline, by crossing count
func (b *Boundary) Contains(p vmath.Vec2) bool {
	inside := false
	n := len(b.Vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, c := b.Vertices[i], b.Vertices[j]
		if (a.Y > p.Y) != (c.Y > p.Y) {
			x := (c.X-a.X)*(p.Y-a.Y)/(c.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}
