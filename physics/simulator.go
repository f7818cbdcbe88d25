package physics

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Simulator owns bodies, flock and marks; not safe for concurrent use
// The caller serializes Step and mutations on one goroutine or behind a lock
type Simulator struct {
	bodies []Body
	flock  []FlockUnit
	marks  marks

	boundary Boundary
	rotation float64
	time     float64

	flockEnabled bool
	rng          *vmath.FastRand
	events       []ImpactEvent
}

// NewSimulator creates a simulator populated from settings
func NewSimulator(settings Settings, seed uint64) *Simulator {
	s := &Simulator{rng: vmath.NewFastRand(seed)}
	s.boundary.rebuild(sanitizeBoundary(settings.Boundary), 0)
	s.Reset(settings.BodyCount, settings.Body)
	flock := sanitizeFlock(settings.Flock)
	if flock.Enabled {
		s.SetFlockCount(flock.Count)
	}
	s.flockEnabled = flock.Enabled
	return s
}

// Reset recreates all bodies at random interior positions with initial-speed velocity
func (s *Simulator) Reset(count int, params BodyParams) {
	count = vmath.ClampInt(count, 0, parameter.MaxBodies)
	params = sanitizeBodyParams(params)
	s.bodies = s.bodies[:0]
	spawn := s.boundary.SafeRadius * 0.5
	for i := 0; i < count; i++ {
		pos := vmath.V(s.rng.Range(0, spawn), 0).Rotate(s.rng.Range(0, vmath.TwoPi))
		vel := vmath.V(params.InitialSpeed, 0).Rotate(s.rng.Range(0, vmath.TwoPi))
		s.bodies = append(s.bodies, Body{
			Pos:        pos,
			Vel:        vel,
			Radius:     parameter.DefaultBodyRadius,
			Color:      uint8(i % 8),
			LastImpact: -parameter.ImpactDeadTime,
			Params:     params,
		})
	}
}

// SetFlockCount recreates the flock with n units
func (s *Simulator) SetFlockCount(n int) {
	n = vmath.ClampInt(n, 0, parameter.MaxFlockUnits)
	s.flock = s.flock[:0]
	r := s.boundary.SafeRadius * 0.8
	for i := 0; i < n; i++ {
		s.flock = append(s.flock, FlockUnit{
			Pos:        vmath.V(s.rng.Range(0, r), 0).Rotate(s.rng.Range(0, vmath.TwoPi)),
			Vel:        vmath.V(parameter.DefaultMaxFlockSpeed*0.5, 0).Rotate(s.rng.Range(0, vmath.TwoPi)),
			LastImpact: -parameter.FlockImpactDeadTime,
		})
	}
}

// SetBodyParams replaces one body's physics parameters
func (s *Simulator) SetBodyParams(i int, p BodyParams) {
	if i < 0 || i >= len(s.bodies) {
		return
	}
	s.bodies[i].Params = sanitizeBodyParams(p)
}

// SetBodyRadius resizes one body
func (s *Simulator) SetBodyRadius(i int, r float64) {
	if i < 0 || i >= len(s.bodies) {
		return
	}
	s.bodies[i].Radius = vmath.Clamp(r, parameter.MinBodyRadius, s.boundary.SafeRadius*0.5)
}

func sanitizeBodyParams(p BodyParams) BodyParams {
	p.Gravity = vmath.Clamp(p.Gravity, -10*parameter.DefaultGravity, 10*parameter.DefaultGravity)
	p.Friction = vmath.Clamp(p.Friction, 0, 10)
	p.Restitution = vmath.Clamp(p.Restitution, 0, 1)
	p.InitialSpeed = vmath.Clamp(p.InitialSpeed, 0, parameter.MaxBodySpeed)
	return p
}

// AddMark records a decaying echo; called by the dispatcher once per impact
func (s *Simulator) AddMark(pos vmath.Vec2, radius float64, suppressed bool) {
	if !pos.IsFinite() {
		return
	}
	s.marks.add(pos, radius, suppressed)
}

// Time returns accumulated simulation seconds
func (s *Simulator) Time() float64 { return s.time }

func (s *Simulator) BodyCount() int { return len(s.bodies) }

func (s *Simulator) FlockCount() int { return len(s.flock) }

// Step advances one tick and returns impacts in iteration order, bodies before flock
// The returned slice is reused by the next Step
func (s *Simulator) Step(in StepInput) []ImpactEvent {
	s.events = s.events[:0]

	// Marks decay on wall time, independent of time scale
	s.marks.decay(parameter.SimStep)

	s.reconcile(in.Settings)

	scale := vmath.Clamp(vmath.Finite(in.TimeScale, 0), 0, 8)
	if scale == 0 {
		return s.events
	}
	dt := parameter.SimStep * scale
	s.time += dt

	bcfg := sanitizeBoundary(in.Settings.Boundary)
	s.rotation = vmath.WrapAngle(s.rotation + bcfg.RotationSpeed*vmath.Finite(in.Settings.RotationMult, 1)*dt)
	s.boundary.rebuild(bcfg, s.rotation)

	gravityScale := vmath.Finite(in.Settings.GravityMult, 1) * GravityScale(in.Settings.LFO, in.Tempo, s.time)

	for i := range s.bodies {
		s.stepBody(i, dt, gravityScale, in.Pointer)
	}

	if s.flockEnabled {
		s.stepFlock(dt, sanitizeFlock(in.Settings.Flock), in.Pointer)
	}
	return s.events
}

// reconcile rebuilds populations whose size or enablement changed
func (s *Simulator) reconcile(set Settings) {
	count := vmath.ClampInt(set.BodyCount, 0, parameter.MaxBodies)
	if count != len(s.bodies) {
		s.Reset(count, set.Body)
	}
	flock := sanitizeFlock(set.Flock)
	if flock.Enabled != s.flockEnabled || (flock.Enabled && flock.Count != len(s.flock)) {
		s.flockEnabled = flock.Enabled
		if flock.Enabled {
			s.SetFlockCount(flock.Count)
		} else {
			s.flock = s.flock[:0]
		}
	}
}

func (s *Simulator) stepBody(i int, dt, gravityScale float64, ptr Pointer) {
	b := &s.bodies[i]
	p := b.Params

	acc := vmath.V(0, p.Gravity*gravityScale).Add(PointerAccel(ptr, b.Pos))
	b.Vel = b.Vel.Add(acc.Scale(dt))
	if damp := 1 - p.Friction*dt; damp < 1 {
		b.Vel = b.Vel.Scale(vmath.Clamp(damp, 0, 1))
	}
	b.Vel = b.Vel.ClampMagnitude(parameter.MaxBodySpeed)
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))

	if s.boundary.Shape == ShapeStar {
		s.collideStar(i)
	} else {
		s.collidePolygon(i)
	}

	if !b.Pos.IsFinite() || !b.Vel.IsFinite() || b.Pos.Magnitude() > s.boundary.Radius*2 {
		b.Pos = vmath.Vec2{}
		b.Vel = vmath.V(p.InitialSpeed, 0).Rotate(s.rng.Range(0, vmath.TwoPi))
	}
	b.Trail.Push(b.Pos)
}

func (s *Simulator) collidePolygon(i int) {
	b := &s.bodies[i]
	for e, edge := range s.boundary.Edges {
		c, ok := ResolveEdge(&b.Pos, &b.Vel, b.Radius, b.Params.Restitution, edge)
		if ok {
			s.emitWall(i, e, c)
		}
	}
}

func (s *Simulator) collideStar(i int) {
	b := &s.bodies[i]
	edges := s.boundary.Edges
	if !s.boundary.Contains(b.Pos) {
		nearest, best := 0, -1.0
		for e, edge := range edges {
			d, _ := vmath.PointSegmentDistance(b.Pos, edge.A, edge.B)
			if best < 0 || d < best {
				nearest, best = e, d
			}
		}
		if c, ok := ResolveSegment(&b.Pos, &b.Vel, b.Radius, b.Params.Restitution, edges[nearest], false); ok {
			s.emitWall(i, nearest, c)
		}
	}
	for e, edge := range edges {
		c, ok := ResolveSegment(&b.Pos, &b.Vel, b.Radius, b.Params.Restitution, edge, true)
		if ok {
			s.emitWall(i, e, c)
		}
	}

	// Tips narrower than the body can leave it outside; pull back into the safe circle
	if !s.boundary.Contains(b.Pos) {
		limit := max(s.boundary.SafeRadius-b.Radius, 0)
		n := b.Pos.Normalize()
		b.Pos = n.Scale(limit)
		if vn := b.Vel.Dot(n); vn > 0 {
			b.Vel = b.Vel.Sub(n.Scale(2 * vn))
		}
	}
}

// emitWall records an impact when the body was moving into the wall and its dead time has passed
func (s *Simulator) emitWall(i, edge int, c Contact) {
	b := &s.bodies[i]
	if c.NormalSpeed >= 0 || s.time-b.LastImpact < parameter.ImpactDeadTime {
		return
	}
	b.LastImpact = s.time
	s.events = append(s.events, ImpactEvent{
		Pos:    b.Pos,
		Speed:  -c.NormalSpeed,
		Edge:   edge,
		Class:  ClassWall,
		Source: SourceBody,
		Entity: i,
		Time:   s.time,
	})
}

func (s *Simulator) stepFlock(dt float64, cfg FlockConfig, ptr Pointer) {
	for i := range s.flock {
		s.flock[i].Acc = flockForces(s.flock, i, s.bodies, cfg).Add(PointerAccel(ptr, s.flock[i].Pos))
	}

	limit := s.boundary.SafeRadius
	for i := range s.flock {
		u := &s.flock[i]
		u.Vel = u.Vel.Add(u.Acc.Scale(dt)).ClampMagnitude(cfg.MaxSpeed)
		u.Pos = u.Pos.Add(u.Vel.Scale(dt))

		if !u.Pos.IsFinite() || !u.Vel.IsFinite() {
			u.Pos = vmath.Vec2{}
			u.Vel = vmath.V(cfg.MaxSpeed*0.5, 0).Rotate(s.rng.Range(0, vmath.TwoPi))
			u.Acc = vmath.Vec2{}
			continue
		}

		if d := u.Pos.Magnitude(); d > limit {
			n := u.Pos.Scale(-1 / d)
			u.Pos = u.Pos.Scale(limit / d)
			vn := u.Vel.Dot(n)
			if vn < 0 {
				u.Vel = u.Vel.Reflect(n)
			}
			if s.flockReady(u) && s.rng.Float64() < cfg.ImpactChance {
				u.LastImpact = s.time
				s.events = append(s.events, ImpactEvent{
					Pos:    u.Pos,
					Speed:  u.Vel.Magnitude(),
					Edge:   s.boundary.EdgeAt(u.Pos),
					Class:  ClassBoundary,
					Source: SourceFlock,
					Entity: i,
					Time:   s.time,
				})
			}
		}

		for k := range s.bodies {
			b := &s.bodies[k]
			if u.Pos.Distance(b.Pos) > b.Radius+cfg.ProximityDist {
				continue
			}
			if s.flockReady(u) && s.rng.Float64() < cfg.ProximityChance {
				u.LastImpact = s.time
				s.events = append(s.events, ImpactEvent{
					Pos:    u.Pos,
					Speed:  u.Vel.Sub(b.Vel).Magnitude(),
					Edge:   s.boundary.EdgeAt(u.Pos),
					Class:  ClassProximity,
					Source: SourceFlock,
					Entity: i,
					Time:   s.time,
				})
			}
			break
		}
	}
}

func (s *Simulator) flockReady(u *FlockUnit) bool {
	return s.time-u.LastImpact >= parameter.FlockImpactDeadTime
}

// Snapshot is a deep copy of renderable state
type Snapshot struct {
	Bodies   []Body
	Flock    []FlockUnit
	Marks    []Mark
	Boundary []vmath.Vec2
	Shape    Shape
	Time     float64
}

// Snapshot copies current state for readers on other goroutines
func (s *Simulator) Snapshot() Snapshot {
	return Snapshot{
		Bodies:   append([]Body(nil), s.bodies...),
		Flock:    append([]FlockUnit(nil), s.flock...),
		Marks:    append([]Mark(nil), s.marks.items...),
		Boundary: append([]vmath.Vec2(nil), s.boundary.Vertices...),
		Shape:    s.boundary.Shape,
		Time:     s.time,
	}
}

// Marks returns live marks; the slice is owned by the simulator
func (s *Simulator) Marks() []Mark { return s.marks.items }

// Bodies returns live bodies; the slice is owned by the simulator
func (s *Simulator) Bodies() []Body { return s.bodies }

// Boundary returns the current outline
func (s *Simulator) Boundary() *Boundary { return &s.boundary }
