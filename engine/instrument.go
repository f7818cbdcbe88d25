// Package engine couples the physics simulator to the voice engine and the effects graph
// on two fixed-rate loops: the simulation tick and the control update
package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/ricochet/audio"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

var ErrIncomplete = errors.New("instrument needs a global store, a rack and a voice engine")

// Config wires an Instrument to its shared stores
type Config struct {
	Global *state.Store
	Visual *state.VisualStore // nil creates a store that always reports defaults
	Rack   *patch.Rack
	Voices *audio.Engine
	Seed   uint64
}

// Instrument owns the simulator and turns each tick's impacts into voices
// Tick is serialized internally; control-layer calls are safe from any goroutine
type Instrument struct {
	global *state.Store
	visual *state.VisualStore
	rack   *patch.Rack
	voices *audio.Engine

	mu  sync.Mutex
	sim *physics.Simulator
	seq uint64

	pointer atomic.Pointer[physics.Pointer]
	frame   frameSlot
	impacts atomic.Uint64
}

// NewInstrument creates the simulator from the current global physics settings
func NewInstrument(cfg Config) (*Instrument, error) {
	if cfg.Global == nil || cfg.Rack == nil || cfg.Voices == nil {
		return nil, ErrIncomplete
	}
	if cfg.Visual == nil {
		cfg.Visual = state.NewVisualStore(parameter.VisualStaleAfter)
	}
	snap := cfg.Global.Load()
	return &Instrument{
		global: cfg.Global,
		visual: cfg.Visual,
		rack:   cfg.Rack,
		voices: cfg.Voices,
		sim:    physics.NewSimulator(snap.Physics, cfg.Seed),
	}, nil
}

// Tick advances the simulation one step, dispatches impacts in iteration order and publishes a frame
func (in *Instrument) Tick() *Frame {
	snap := in.global.Load()
	vis := in.visual.Get()
	var ptr physics.Pointer
	if p := in.pointer.Load(); p != nil {
		ptr = *p
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	events := in.sim.Step(physics.StepInput{
		Settings:  snap.Physics,
		TimeScale: snap.EffectiveTimeScale(),
		Tempo:     snap.Tempo,
		Pointer:   ptr,
	})

	voiced := 0
	bodies := in.sim.Bodies()
	for _, ev := range events {
		res := in.dispatch(ev, snap.Global, vis)
		if res.Voiced {
			voiced++
		}
		// Every impact leaves a mark, silent ones drawn as suppressed
		in.sim.AddMark(ev.Pos, markRadius(ev, bodies), !res.Voiced)
	}
	in.impacts.Add(uint64(len(events)))

	in.seq++
	f := &Frame{
		Seq:     in.seq,
		Physics: in.sim.Snapshot(),
		Global:  snap,
		Visual:  vis,
		Impacts: len(events),
		Voiced:  voiced,
		Stats:   in.voices.Stats(),
	}
	in.frame.store(f)
	return f
}

// dispatch routes an impact to its owning instrument slot
func (in *Instrument) dispatch(ev physics.ImpactEvent, g state.Global, vis state.Visual) audio.Result {
	return in.voices.Trigger(ev, in.rack.Get(audio.SlotOf(ev)), g, vis)
}

func markRadius(ev physics.ImpactEvent, bodies []physics.Body) float64 {
	r := parameter.MarkBaseRadius
	if ev.Source == physics.SourceBody && ev.Entity >= 0 && ev.Entity < len(bodies) {
		r += bodies[ev.Entity].Radius
	}
	return r * (1 + vmath.Clamp01(ev.Speed/parameter.MarkSpeedScale))
}

// Frame returns the latest published frame, nil before the first tick
func (in *Instrument) Frame() *Frame { return in.frame.load() }

// Impacts returns the total number of impacts dispatched
func (in *Instrument) Impacts() uint64 { return in.impacts.Load() }

// SetPointer engages the attract or repel force at pos
func (in *Instrument) SetPointer(pos vmath.Vec2, repel bool) {
	in.pointer.Store(&physics.Pointer{
		Active:   true,
		Pos:      pos,
		Repel:    repel,
		Strength: parameter.DefaultPointerPull,
		Radius:   parameter.DefaultPointerRad,
	})
}

// ReleasePointer removes the pointer force
func (in *Instrument) ReleasePointer() { in.pointer.Store(nil) }

// Respawn scatters the bodies again with the current physics settings
func (in *Instrument) Respawn() {
	set := in.global.Load().Physics
	in.mu.Lock()
	in.sim.Reset(set.BodyCount, set.Body)
	in.mu.Unlock()
}

// Rack returns the instrument rack
func (in *Instrument) Rack() *patch.Rack { return in.rack }

// Voices returns the voice engine
func (in *Instrument) Voices() *audio.Engine { return in.voices }
