package vmath

import (
	"math"
	"testing"
)

const tol = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < tol }

// TestNormalizeZeroSafe verifies zero and tiny vectors normalize to zero
func TestNormalizeZeroSafe(t *testing.T) {
	if got := (Vec2{}).Normalize(); got != (Vec2{}) {
		t.Errorf("Expected zero vector, got %v", got)
	}
	if got := V(1e-12, 0).Normalize(); got != (Vec2{}) {
		t.Errorf("Expected zero vector for tiny input, got %v", got)
	}
	got := V(3, 4).Normalize()
	if !near(got.Magnitude(), 1) {
		t.Errorf("Expected unit length, got %f", got.Magnitude())
	}
}

// TestClampMagnitude verifies direction is kept while length is limited
func TestClampMagnitude(t *testing.T) {
	v := V(30, 40).ClampMagnitude(5)
	if !near(v.X, 3) || !near(v.Y, 4) {
		t.Errorf("Expected (3,4), got %v", v)
	}
	short := V(1, 1)
	if got := short.ClampMagnitude(5); got != short {
		t.Errorf("Expected unchanged vector, got %v", got)
	}
	if got := V(1, 1).ClampMagnitude(0); got != (Vec2{}) {
		t.Errorf("Expected zero vector for zero limit, got %v", got)
	}
}

// TestReflect verifies reflection across a unit normal
func TestReflect(t *testing.T) {
	got := V(1, -1).Reflect(V(0, 1))
	if !near(got.X, 1) || !near(got.Y, 1) {
		t.Errorf("Expected (1,1), got %v", got)
	}
}

// TestRegularPolygonRadius verifies all vertices sit on the circumradius
func TestRegularPolygonRadius(t *testing.T) {
	for _, sides := range []int{0, 3, 5, 8} {
		verts := RegularPolygon(sides, 10, 0.3)
		want := sides
		if want < 3 {
			want = 3
		}
		if len(verts) != want {
			t.Fatalf("sides=%d: expected %d vertices, got %d", sides, want, len(verts))
		}
		for i, v := range verts {
			if !near(v.Magnitude(), 10) {
				t.Errorf("sides=%d vertex %d: radius %f", sides, i, v.Magnitude())
			}
		}
	}
}

// TestEdgesInwardNormal verifies the origin is on the inward side of every edge
func TestEdgesInwardNormal(t *testing.T) {
	edges := Edges(RegularPolygon(6, 5, 1.1))
	apothem := InscribedRadius(6, 5)
	for i, e := range edges {
		d := e.SignedDistance(Vec2{})
		if !near(d, apothem) {
			t.Errorf("edge %d: expected signed distance %f, got %f", i, apothem, d)
		}
	}
}

// TestStarVertices verifies alternating inner and outer radius
func TestStarVertices(t *testing.T) {
	verts := Star(5, 10, 0.5, 0)
	if len(verts) != 10 {
		t.Fatalf("Expected 10 vertices, got %d", len(verts))
	}
	for i, v := range verts {
		want := 10.0
		if i%2 == 1 {
			want = 5
		}
		if !near(v.Magnitude(), want) {
			t.Errorf("vertex %d: expected radius %f, got %f", i, want, v.Magnitude())
		}
	}
}

// TestPointSegmentDistance verifies interior, endpoint, and degenerate cases
func TestPointSegmentDistance(t *testing.T) {
	tests := []struct {
		name string
		p    Vec2
		a, b Vec2
		want float64
	}{
		{"perpendicular", V(5, 3), V(0, 0), V(10, 0), 3},
		{"past end", V(13, 4), V(0, 0), V(10, 0), 5},
		{"before start", V(-3, 0), V(0, 0), V(10, 0), 3},
		{"degenerate", V(3, 4), V(0, 0), V(0, 0), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := PointSegmentDistance(tt.p, tt.a, tt.b)
			if !near(got, tt.want) {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

// TestFastRandFloatRange verifies Float64 stays in [0,1) and is deterministic per seed
func TestFastRandFloatRange(t *testing.T) {
	a := NewFastRand(42)
	b := NewFastRand(42)
	for i := 0; i < 10000; i++ {
		x := a.Float64()
		if x < 0 || x >= 1 {
			t.Fatalf("Float64 out of range: %f", x)
		}
		if y := b.Float64(); x != y {
			t.Fatalf("Expected identical sequences, diverged at %d", i)
		}
	}
	if NewFastRand(0).Next() == 0 {
		t.Error("Expected zero seed to be remapped")
	}
}

// TestClampNaN verifies NaN clamps to the lower bound
func TestClampNaN(t *testing.T) {
	if got := Clamp(math.NaN(), 2, 5); got != 2 {
		t.Errorf("Expected 2, got %f", got)
	}
	if got := ExpLerp(20, 20000, 0.5); !near(got, math.Sqrt(20*20000)) {
		t.Errorf("Expected geometric mean, got %f", got)
	}
	q, r := FloorDiv(-1, 7)
	if q != -1 || r != 6 {
		t.Errorf("Expected (-1,6), got (%d,%d)", q, r)
	}
}
