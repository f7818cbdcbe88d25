package state

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Visual is the energy triple supplied by an external analyzer
type Visual struct {
	Motion     float64 // [0,1]
	Brightness float64 // [0,1]
	Hue        float64 // [0,360)
}

// DefaultVisual is used when no analyzer is attached or its data is stale
var DefaultVisual = Visual{Motion: 0.2, Brightness: 0.5, Hue: 200}

// Clamp normalizes ranges; non-finite values fall back to defaults
func (v Visual) Clamp() Visual {
	v.Motion = vmath.Clamp01(vmath.Finite(v.Motion, DefaultVisual.Motion))
	v.Brightness = vmath.Clamp01(vmath.Finite(v.Brightness, DefaultVisual.Brightness))
	v.Hue = math.Mod(vmath.Finite(v.Hue, DefaultVisual.Hue), 360)
	if v.Hue < 0 {
		v.Hue += 360
	}
	return v
}

// Energy is the combined motion and brightness drive in [0,1]
func (v Visual) Energy() float64 {
	return vmath.Clamp01(0.6*v.Motion + 0.4*v.Brightness)
}

type visualSample struct {
	v  Visual
	at time.Time
}

// VisualStore holds the latest analyzer reading
type VisualStore struct {
	latest     atomic.Pointer[visualSample]
	staleAfter time.Duration
	now        func() time.Time
}

// NewVisualStore creates an empty store; readings expire after staleAfter (0 = never)
func NewVisualStore(staleAfter time.Duration) *VisualStore {
	if staleAfter < 0 {
		staleAfter = parameter.VisualStaleAfter
	}
	return &VisualStore{staleAfter: staleAfter, now: time.Now}
}

// Set publishes a reading
func (s *VisualStore) Set(v Visual) {
	s.latest.Store(&visualSample{v: v.Clamp(), at: s.now()})
}

// Get returns the latest fresh reading or DefaultVisual
func (s *VisualStore) Get() Visual {
	v, _ := s.Lookup()
	return v
}

// Lookup returns the reading and whether it is live
func (s *VisualStore) Lookup() (Visual, bool) {
	p := s.latest.Load()
	if p == nil {
		return DefaultVisual, false
	}
	if s.staleAfter > 0 && s.now().Sub(p.at) > s.staleAfter {
		return DefaultVisual, false
	}
	return p.v, true
}

// Clear drops the reading, reverting to defaults
func (s *VisualStore) Clear() {
	s.latest.Store(nil)
}
