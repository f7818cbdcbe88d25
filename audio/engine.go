// Package audio turns impact events into voices and renders them onto the effects bus
package audio

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

// Result reports what a trigger did
// A zero Result means the event was consumed without sound (physical model)
type Result struct {
	Voiced     bool
	Suppressed bool // probability gate
	Gated      bool // Euclidean gate rejected a flock step
	Dropped    bool // polyphony ceiling
}

// Stats are cumulative trigger counters
type Stats struct {
	Played     uint64
	Suppressed uint64
	Gated      uint64
	Dropped    uint64
	Completed  uint64
	Live       int
}

// EngineConfig sizes a VoiceEngine
type EngineConfig struct {
	SampleRate float64
	Polyphony  int
	Seed       uint64
	Bank       *Bank // nil creates a built-in bank
}

// Engine is the VoiceEngine
// Trigger is safe for concurrent use; Bus().Mix belongs to the audio goroutine
type Engine struct {
	sr   float64
	bus  *Bus
	bank *Bank

	mu       sync.Mutex
	rng      *vmath.FastRand
	mapper   *music.Mapper
	steps    map[int]int // Euclidean step per instrument slot
	nextSeed uint64

	played     atomic.Uint64
	suppressed atomic.Uint64
	gated      atomic.Uint64
	dropped    atomic.Uint64
}

// NewEngine creates a VoiceEngine with its voice bus
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = parameter.AudioSampleRate
	}
	if cfg.Polyphony <= 0 {
		cfg.Polyphony = parameter.MaxPolyphony
	}
	bank := cfg.Bank
	if bank == nil {
		bank = NewBank(cfg.SampleRate, cfg.Seed+3)
	}
	return &Engine{
		sr:       cfg.SampleRate,
		bus:      newBus(cfg.SampleRate, cfg.Polyphony),
		bank:     bank,
		rng:      vmath.NewFastRand(cfg.Seed + 1),
		mapper:   music.NewMapper(cfg.Seed + 2),
		steps:    make(map[int]int),
		nextSeed: cfg.Seed + 1000,
	}
}

// Bus returns the voice bus to hand to the effects graph
func (e *Engine) Bus() *Bus { return e.bus }

// Bank returns the sample bank, also usable as a patch.Catalog
func (e *Engine) Bank() *Bank { return e.bank }

// SampleRate returns the engine rate
func (e *Engine) SampleRate() float64 { return e.sr }

// Stats returns a snapshot of the trigger counters
func (e *Engine) Stats() Stats {
	return Stats{
		Played:     e.played.Load(),
		Suppressed: e.suppressed.Load(),
		Gated:      e.gated.Load(),
		Dropped:    e.dropped.Load(),
		Completed:  e.bus.Completed(),
		Live:       e.bus.Live(),
	}
}

// plan is a resolved trigger before allocation
type plan struct {
	kind     planKind
	freq     float64
	velocity float64
	drum     patch.DrumKind
	sample   *Sample
}

type planKind uint8

const (
	planNone planKind = iota
	planSynth
	planSample
	planGranular
	planDrum
)

// SlotOf returns the rack slot owning an impact: the body index, or patch.FlockSlot
func SlotOf(ev physics.ImpactEvent) int {
	if ev.Source == physics.SourceBody {
		return ev.Entity
	}
	return patch.FlockSlot
}

// Trigger resolves one impact against an instrument and the current control snapshot
func (e *Engine) Trigger(ev physics.ImpactEvent, cfg patch.InstrumentConfig, g state.Global, vis state.Visual) Result {
	cfg = patch.Sanitize(cfg, e.bank)
	vis = vis.Clamp()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() >= cfg.Probability {
		e.suppressed.Add(1)
		return Result{Suppressed: true}
	}

	p := e.resolve(ev, cfg, g)
	if p.kind == planNone {
		if ev.Source == physics.SourceFlock && ev.Class == physics.ClassBoundary {
			e.gated.Add(1)
			return Result{Gated: true}
		}
		return Result{}
	}

	if !e.bus.acquire() {
		e.dropped.Add(1)
		return Result{Dropped: true}
	}

	v := e.build(p, ev, cfg, g, vis)
	if !e.bus.submit(v) {
		e.dropped.Add(1)
		return Result{Dropped: true}
	}
	e.played.Add(1)
	return Result{Voiced: true}
}

// resolve picks the model and pitch; planNone for gated flock steps and the physical model
func (e *Engine) resolve(ev physics.ImpactEvent, cfg patch.InstrumentConfig, g state.Global) plan {
	p := plan{velocity: velocity(ev.Speed)}

	switch {
	case ev.Class == physics.ClassProximity:
		p.kind = planDrum
		p.drum = patch.DrumClick
		return p

	case ev.Source == physics.SourceFlock:
		slot := SlotOf(ev)
		steps := max(cfg.Euclid.Steps, 1)
		step := e.steps[slot] % steps
		e.steps[slot] = (step + 1) % steps
		if !music.EuclidHit(step, cfg.Euclid.Hits, steps) {
			return p
		}
		p.kind = planDrum
		p.drum = cfg.Drum
		if p.drum == patch.DrumNone {
			p.drum = patch.DrumGlitch
		}
		p.freq = music.RootFrequency(g.RootKey, 1)
		return p
	}

	degree := parameter.DegreesPerEdge * ev.Edge
	if e.rng.Float64() < parameter.JumpChance {
		degree += parameter.JumpDegrees
	}
	p.freq = e.mapper.Frequency(g.RootKey, g.Scale, cfg.Octave, degree, g.Drift)

	if cfg.Drum != patch.DrumNone {
		p.kind = planDrum
		p.drum = cfg.Drum
		return p
	}

	switch cfg.Source {
	case patch.SourceSynth:
		p.kind = planSynth
	case patch.SourceSample, patch.SourceGranular:
		smp, ok := e.bank.Get(cfg.SampleID)
		if !ok {
			return p
		}
		p.sample = smp
		p.kind = planSample
		if cfg.Source == patch.SourceGranular {
			p.kind = planGranular
		}
	case patch.SourcePhysical:
		// reserved model, no synthesis
	}
	return p
}

// build creates the voice chain for a resolved plan
func (e *Engine) build(p plan, ev physics.ImpactEvent, cfg patch.InstrumentConfig, g state.Global, vis state.Visual) *voice {
	e.nextSeed++
	var src beep.Streamer
	switch p.kind {
	case planSynth:
		src = newSynth(e.sr, p.freq, p.velocity, cfg, vis, e.nextSeed)
	case planSample:
		src = newSampler(e.sr, p.freq, p.velocity, p.sample, cfg, vis)
	case planGranular:
		src = newGranular(e.sr, p.freq, p.velocity, p.sample, ev.Pos.X, g.Physics.Boundary.Radius, e.rng)
	default:
		src = bufferStreamer(drumBuffer(p.drum, e.sr, p.freq, cfg.Color, e.rng), p.velocity)
	}

	pan := cfg.Pan
	if cfg.SpatialPan {
		pan = vmath.Clamp(vmath.SafeDiv(ev.Pos.X, g.Physics.Boundary.Radius), -1, 1)
	}

	return &voice{
		stream: finish(src, cfg.LoFi, pan, int(parameter.MaxVoiceDuration.Seconds()*e.sr)),
		gain:   parameter.VoiceBaseGain,
		reverb: parameter.SendFloor + cfg.Time*parameter.ReverbSendMax,
		delay:  parameter.SendFloor + cfg.Time*parameter.DelaySendMax,
	}
}

// velocity maps impact speed onto [MinVelocity, 1]
func velocity(speed float64) float64 {
	return vmath.Clamp(vmath.Finite(speed, 0)/parameter.SpeedForFullVelocity, parameter.MinVelocity, 1)
}
