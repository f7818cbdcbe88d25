package physics

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// sanitizeFlock clamps tuning so steering stays finite
func sanitizeFlock(cfg FlockConfig) FlockConfig {
	cfg.Count = vmath.ClampInt(cfg.Count, 0, parameter.MaxFlockUnits)
	if cfg.Perception < parameter.MinPerception || cfg.Perception != cfg.Perception {
		cfg.Perception = parameter.MinPerception
	}
	cfg.SeparationDist = vmath.Clamp(cfg.SeparationDist, vmath.Epsilon, cfg.Perception)
	cfg.MaxSpeed = vmath.Clamp(cfg.MaxSpeed, 1, parameter.MaxBodySpeed)
	cfg.MaxForce = vmath.Clamp(cfg.MaxForce, 0, 100*parameter.DefaultMaxForce)
	cfg.AlignWeight = vmath.Clamp(cfg.AlignWeight, 0, 10)
	cfg.CohesionWeight = vmath.Clamp(cfg.CohesionWeight, 0, 10)
	cfg.SeparateWeight = vmath.Clamp(cfg.SeparateWeight, 0, 10)
	cfg.CenterWeight = vmath.Clamp(cfg.CenterWeight, 0, 10)
	cfg.AvoidWeight = vmath.Clamp(cfg.AvoidWeight, 0, 10)
	cfg.AvoidRadius = vmath.Clamp(cfg.AvoidRadius, 0, 10*parameter.DefaultBoundary)
	cfg.ImpactChance = vmath.Clamp01(cfg.ImpactChance)
	cfg.ProximityDist = vmath.Clamp(cfg.ProximityDist, 0, 10*parameter.DefaultBoundary)
	cfg.ProximityChance = vmath.Clamp01(cfg.ProximityChance)
	return cfg
}

// steer turns a desired direction into a clamped steering force
func steer(desired, vel vmath.Vec2, maxSpeed, maxForce float64) vmath.Vec2 {
	if desired == (vmath.Vec2{}) {
		return vmath.Vec2{}
	}
	return desired.SetMagnitude(maxSpeed).Sub(vel).ClampMagnitude(maxForce)
}

// flockForces computes alignment, cohesion, separation, centering and body avoidance for unit i
func flockForces(units []FlockUnit, i int, bodies []Body, cfg FlockConfig) vmath.Vec2 {
	u := units[i]
	var sumVel, sumPos, sep vmath.Vec2
	neighbors := 0
	perceptionSq := cfg.Perception * cfg.Perception

	for j := range units {
		if j == i {
			continue
		}
		delta := u.Pos.Sub(units[j].Pos)
		dSq := delta.MagnitudeSq()
		if dSq > perceptionSq {
			continue
		}
		neighbors++
		sumVel = sumVel.Add(units[j].Vel)
		sumPos = sumPos.Add(units[j].Pos)
		if d := delta.Magnitude(); d < cfg.SeparationDist {
			if d < vmath.Epsilon {
				// Coincident units push apart along an index-derived axis
				delta = vmath.V(1, 0).Rotate(float64(i))
				d = 1
			}
			sep = sep.Add(delta.Scale(1 / (d * d)))
		}
	}

	var acc vmath.Vec2
	if neighbors > 0 {
		inv := 1 / float64(neighbors)
		align := steer(sumVel.Scale(inv), u.Vel, cfg.MaxSpeed, cfg.MaxForce)
		cohesion := steer(sumPos.Scale(inv).Sub(u.Pos), u.Vel, cfg.MaxSpeed, cfg.MaxForce)
		acc = acc.Add(align.Scale(cfg.AlignWeight)).Add(cohesion.Scale(cfg.CohesionWeight))
	}
	separation := steer(sep, u.Vel, cfg.MaxSpeed, cfg.MaxForce)
	acc = acc.Add(separation.Scale(cfg.SeparateWeight))

	// Weak pull to the origin keeps the flock from pinning against the boundary
	acc = acc.Add(u.Pos.Scale(-cfg.CenterWeight))

	for k := range bodies {
		delta := u.Pos.Sub(bodies[k].Pos)
		reach := cfg.AvoidRadius + bodies[k].Radius
		d := delta.Magnitude()
		if d >= reach || reach <= 0 {
			continue
		}
		push := delta.Normalize().Scale(cfg.MaxForce * (1 - d/reach))
		acc = acc.Add(push.Scale(cfg.AvoidWeight))
	}
	return acc
}
