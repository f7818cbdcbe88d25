package physics

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// marks holds decaying impact echoes with a fixed capacity
type marks struct {
	items []Mark
}

// add appends a mark at full life, dropping the oldest when full
func (m *marks) add(pos vmath.Vec2, radius float64, suppressed bool) {
	if len(m.items) >= parameter.MaxMarks {
		copy(m.items, m.items[1:])
		m.items = m.items[:len(m.items)-1]
	}
	m.items = append(m.items, Mark{Pos: pos, Life: 1, Radius: radius, Suppressed: suppressed})
}

// decay reduces life by dt worth of decay and compacts expired marks
func (m *marks) decay(dt float64) {
	step := parameter.MarkDecayPerSecond * dt
	kept := m.items[:0]
	for _, mk := range m.items {
		mk.Life -= step
		if mk.Life > 0 {
			kept = append(kept, mk)
		}
	}
	clear(m.items[len(kept):])
	m.items = kept
}
