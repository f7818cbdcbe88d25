package engine

import (
	"sync/atomic"

	"github.com/lixenwraith/ricochet/audio"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/state"
)

// Frame is an immutable picture of one simulation tick
// Renderers read the latest frame and never touch the simulator
type Frame struct {
	Seq     uint64
	Physics physics.Snapshot
	Global  state.Snapshot
	Visual  state.Visual

	// Per-tick dispatch counts
	Impacts int
	Voiced  int

	Stats audio.Stats
}

// frameSlot publishes frames by pointer swap
type frameSlot struct {
	p atomic.Pointer[Frame]
}

func (s *frameSlot) store(f *Frame) { s.p.Store(f) }

// load returns the latest frame, nil before the first tick
func (s *frameSlot) load() *Frame { return s.p.Load() }
