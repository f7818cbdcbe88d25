// Package state publishes process-wide control values as immutable snapshots
package state

import (
	"sync/atomic"

	"github.com/lixenwraith/ricochet/fx"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/vmath"
)

// Global is the control-layer state read by the tick and audio update loops
type Global struct {
	RootKey int         `toml:"root_key"`
	Scale   music.Scale `toml:"scale"`
	Tempo   float64     `toml:"tempo"`
	Drift   float64     `toml:"drift"`

	DroneLevel float64 `toml:"drone_level"`
	NoiseLevel float64 `toml:"noise_level"`

	Playing bool `toml:"playing"`
	Chaos   bool `toml:"chaos"`

	Volume       float64 `toml:"volume"`
	TimeScale    float64 `toml:"time_scale"`
	GlobalFilter float64 `toml:"global_filter"` // normalized, 1 = open

	Flux    fx.FluxParams    `toml:"flux"`
	Physics physics.Settings `toml:"physics"`
}

// DefaultGlobal returns the startup state
func DefaultGlobal() Global {
	return Global{
		RootKey:      9,
		Scale:        music.ScalePentatonicMinor,
		Tempo:        parameter.DefaultBPM,
		Drift:        0.15,
		DroneLevel:   0.2,
		NoiseLevel:   0.05,
		Playing:      true,
		Volume:       0.8,
		TimeScale:    1,
		GlobalFilter: 1,
		Flux:         fx.NeutralFlux(),
		Physics:      physics.DefaultSettings(),
	}
}

// Sanitize clamps every field to its safe range
func (g Global) Sanitize() Global {
	_, g.RootKey = vmath.FloorDiv(g.RootKey, 12)
	if !g.Scale.Valid() {
		g.Scale = music.ScaleMajor
	}
	g.Tempo = music.ClampBPM(g.Tempo)
	g.Drift = vmath.Clamp01(g.Drift)
	g.DroneLevel = vmath.Clamp01(g.DroneLevel)
	g.NoiseLevel = vmath.Clamp01(g.NoiseLevel)
	g.Volume = vmath.Clamp01(g.Volume)
	g.TimeScale = vmath.Clamp(g.TimeScale, 0, parameter.MaxTimeScale)
	g.GlobalFilter = vmath.Clamp01(g.GlobalFilter)
	g.Flux = g.Flux.Clamp()
	g.Physics.BodyCount = vmath.ClampInt(g.Physics.BodyCount, 0, parameter.MaxBodies)
	g.Physics.Flock.Count = vmath.ClampInt(g.Physics.Flock.Count, 0, parameter.MaxFlockUnits)
	return g
}

// EffectiveTimeScale is zero when playback is stopped
func (g Global) EffectiveTimeScale() float64 {
	if !g.Playing {
		return 0
	}
	return g.TimeScale
}

// Snapshot is a published Global with its version
type Snapshot struct {
	Global
	Version uint64
}

// Store publishes Global snapshots; readers never lock
// Concurrent writers resolve by compare-and-swap, last write wins
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding g at version 1
func NewStore(g Global) *Store {
	s := &Store{}
	s.current.Store(&Snapshot{Global: g.Sanitize(), Version: 1})
	return s
}

// Load returns the latest snapshot by value
func (s *Store) Load() Snapshot {
	return *s.current.Load()
}

// Update applies fn to a copy of the current state and publishes the result
func (s *Store) Update(fn func(*Global)) Snapshot {
	for {
		old := s.current.Load()
		g := old.Global
		fn(&g)
		next := &Snapshot{Global: g.Sanitize(), Version: old.Version + 1}
		if s.current.CompareAndSwap(old, next) {
			return *next
		}
	}
}

// Replace publishes g wholesale
func (s *Store) Replace(g Global) Snapshot {
	return s.Update(func(cur *Global) { *cur = g })
}
