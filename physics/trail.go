package physics

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Trail is a fixed ring of recent positions, copyable by value
type Trail struct {
	points [parameter.TrailLength]vmath.Vec2
	head   int
	count  int
}

// Push records a position, overwriting the oldest when full
func (t *Trail) Push(p vmath.Vec2) {
	t.points[t.head] = p
	t.head = (t.head + 1) % len(t.points)
	if t.count < len(t.points) {
		t.count++
	}
}

// Len returns the number of stored positions
func (t *Trail) Len() int { return t.count }

// Points appends positions oldest first to dst
func (t *Trail) Points(dst []vmath.Vec2) []vmath.Vec2 {
	start := t.head - t.count
	if start < 0 {
		start += len(t.points)
	}
	for i := 0; i < t.count; i++ {
		dst = append(dst, t.points[(start+i)%len(t.points)])
	}
	return dst
}

func (t *Trail) Clear() {
	t.head, t.count = 0, 0
}
