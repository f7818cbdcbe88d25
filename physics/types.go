// Package physics runs the fixed-step body and flock simulation that produces impact events
package physics

import (
	"fmt"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// SourceKind identifies which population produced an impact
type SourceKind uint8

const (
	SourceBody SourceKind = iota
	SourceFlock
)

func (s SourceKind) String() string {
	if s == SourceFlock {
		return "flock"
	}
	return "body"
}

// ImpactClass distinguishes wall hits from flock events
type ImpactClass uint8

const (
	// ClassWall is a body striking a boundary edge
	ClassWall ImpactClass = iota
	// ClassBoundary is a flock unit reflected at the boundary radius
	ClassBoundary
	// ClassProximity is a flock unit passing close to a body
	ClassProximity
)

// ImpactEvent is produced once per collision per tick and consumed immediately
type ImpactEvent struct {
	Pos    vmath.Vec2
	Speed  float64
	Edge   int
	Class  ImpactClass
	Source SourceKind
	Entity int     // body or flock unit index
	Time   float64 // simulation seconds
}

// BodyParams are the per-entity physics parameters
type BodyParams struct {
	Gravity      float64
	Friction     float64
	Restitution  float64
	InitialSpeed float64
}

// DefaultBodyParams returns the stock body tuning
func DefaultBodyParams() BodyParams {
	return BodyParams{
		Gravity:      parameter.DefaultGravity,
		Friction:     parameter.DefaultFriction,
		Restitution:  parameter.DefaultRestitution,
		InitialSpeed: parameter.DefaultInitialSpeed,
	}
}

// Body is one bouncing ball
type Body struct {
	Pos, Vel   vmath.Vec2
	Radius     float64
	Color      uint8
	Trail      Trail
	LastImpact float64
	Params     BodyParams
}

// FlockUnit is one boid
type FlockUnit struct {
	Pos, Vel, Acc vmath.Vec2
	LastImpact    float64
}

// Mark is a decaying visual echo of an impact
type Mark struct {
	Pos        vmath.Vec2
	Life       float64 // [0,1]
	Radius     float64
	Suppressed bool
}

// Shape selects the boundary outline
type Shape uint8

const (
	ShapePolygon Shape = iota
	ShapeStar
)

func (s Shape) String() string {
	if s == ShapeStar {
		return "star"
	}
	return "polygon"
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	switch string(b) {
	case "polygon":
		*s = ShapePolygon
	case "star":
		*s = ShapeStar
	default:
		return fmt.Errorf("unknown shape %q", b)
	}
	return nil
}

// BoundaryConfig describes the rotating container
type BoundaryConfig struct {
	Shape         Shape   `toml:"shape"`
	Sides         int     `toml:"sides"`
	Radius        float64 `toml:"radius"`
	InnerRatio    float64 `toml:"inner_ratio"`
	RotationSpeed float64 `toml:"rotation_speed"`
}

// FlockConfig tunes the boid population
type FlockConfig struct {
	Enabled         bool    `toml:"enabled"`
	Count           int     `toml:"count"`
	Perception      float64 `toml:"perception"`
	SeparationDist  float64 `toml:"separation_dist"`
	AlignWeight     float64 `toml:"align_weight"`
	CohesionWeight  float64 `toml:"cohesion_weight"`
	SeparateWeight  float64 `toml:"separate_weight"`
	CenterWeight    float64 `toml:"center_weight"`
	AvoidWeight     float64 `toml:"avoid_weight"`
	AvoidRadius     float64 `toml:"avoid_radius"`
	MaxForce        float64 `toml:"max_force"`
	MaxSpeed        float64 `toml:"max_speed"`
	ImpactChance    float64 `toml:"impact_chance"`
	ProximityDist   float64 `toml:"proximity_dist"`
	ProximityChance float64 `toml:"proximity_chance"`
}

// GravityLFO overlays a sinusoid on gravity with a tempo-derived period
type GravityLFO struct {
	Enabled bool    `toml:"enabled"`
	Rate    float64 `toml:"rate"`
	Depth   float64 `toml:"depth"`
}

// Pointer is an attract or repel force from touch or mouse input
type Pointer struct {
	Active   bool
	Pos      vmath.Vec2
	Repel    bool
	Strength float64
	Radius   float64
}

// Settings are the control-layer physics parameters carried in the global snapshot
type Settings struct {
	BodyCount    int            `toml:"body_count"`
	Body         BodyParams     `toml:"body"`
	Boundary     BoundaryConfig `toml:"boundary"`
	Flock        FlockConfig    `toml:"flock"`
	GravityMult  float64        `toml:"gravity_mult"`
	RotationMult float64        `toml:"rotation_mult"`
	LFO          GravityLFO     `toml:"lfo"`
}

// DefaultSettings returns the stock simulation setup
func DefaultSettings() Settings {
	return Settings{
		BodyCount: parameter.DefaultBodyCount,
		Body:      DefaultBodyParams(),
		Boundary: BoundaryConfig{
			Shape:         ShapePolygon,
			Sides:         parameter.DefaultSides,
			Radius:        parameter.DefaultBoundary,
			InnerRatio:    parameter.DefaultStarInner,
			RotationSpeed: parameter.DefaultRotationSpeed,
		},
		Flock: FlockConfig{
			Enabled:         false,
			Count:           parameter.DefaultFlockCount,
			Perception:      parameter.DefaultPerception,
			SeparationDist:  parameter.DefaultSeparationDist,
			AlignWeight:     parameter.DefaultAlignWeight,
			CohesionWeight:  parameter.DefaultCohesionWeight,
			SeparateWeight:  parameter.DefaultSeparateWeight,
			CenterWeight:    parameter.DefaultCenterWeight,
			AvoidWeight:     parameter.DefaultAvoidWeight,
			AvoidRadius:     parameter.DefaultAvoidRadius,
			MaxForce:        parameter.DefaultMaxForce,
			MaxSpeed:        parameter.DefaultMaxFlockSpeed,
			ImpactChance:    parameter.DefaultImpactChance,
			ProximityDist:   parameter.DefaultProximityDist,
			ProximityChance: parameter.DefaultProximityOdds,
		},
		GravityMult:  1,
		RotationMult: 1,
		LFO:          GravityLFO{Rate: 1, Depth: 0.5},
	}
}

// StepInput is everything one tick reads from outside the simulator
type StepInput struct {
	Settings  Settings
	TimeScale float64
	Tempo     float64
	Pointer   Pointer
}
