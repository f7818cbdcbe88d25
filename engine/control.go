package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ricochet/chaos"
	"github.com/lixenwraith/ricochet/fx"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

// Modulation is what one control step applied to the graph
type Modulation struct {
	Energy        float64
	ReverbReturn  float64
	DelayFeedback float64
	FilterHz      float64

	Chaos         bool
	ChaosFilter   float64 // [0,1], zero when chaos is off
	ChaosFeedback float64
}

// ControlLoop retunes the effects graph from global state, visual energy and the chaos source
// It runs at display rate, independent of the simulation tick
type ControlLoop struct {
	graph  *fx.Graph
	global *state.Store
	visual *state.VisualStore

	mu     sync.Mutex
	lorenz *chaos.Lorenz
	carry  float64 // fractional attractor steps

	last atomic.Pointer[Modulation]
}

// NewControlLoop creates a control loop; visual nil always reports default energy
func NewControlLoop(graph *fx.Graph, global *state.Store, visual *state.VisualStore, seed uint64) *ControlLoop {
	if visual == nil {
		visual = state.NewVisualStore(parameter.VisualStaleAfter)
	}
	return &ControlLoop{
		graph:  graph,
		global: global,
		visual: visual,
		lorenz: chaos.NewLorenz(seed),
	}
}

// Step advances by one display frame
func (c *ControlLoop) Step() { c.Advance(parameter.FrameUpdateInterval) }

// Advance applies the current control state after dt of wall time
func (c *ControlLoop) Advance(dt time.Duration) Modulation {
	snap := c.global.Load()
	energy := c.visual.Get().Energy()

	m := Modulation{
		Energy:        energy,
		ReverbReturn:  vmath.Lerp(parameter.ReverbReturnMin, parameter.ReverbReturnMax, energy),
		DelayFeedback: vmath.Lerp(parameter.EnergyFeedbackMin, parameter.EnergyFeedbackMax, energy),
		Chaos:         snap.Chaos,
	}

	filter := snap.GlobalFilter
	if snap.Chaos {
		m.ChaosFilter, m.ChaosFeedback = c.advanceChaos(dt)
		filter *= vmath.Lerp(parameter.ChaosFilterFloor, 1, m.ChaosFilter)
		m.DelayFeedback = vmath.Lerp(parameter.ChaosFeedbackMin, parameter.ChaosFeedbackMax, m.ChaosFeedback)
	}
	m.FilterHz = state.GlobalFilterHz(filter)

	g := c.graph
	g.SetReverbReturn(m.ReverbReturn)
	g.SetDelayFeedback(m.DelayFeedback)
	g.SetFilter(m.FilterHz)
	g.SetTempo(snap.Tempo)
	g.SetVolume(snap.Volume)
	g.SetFlux(snap.Flux)
	g.SetBed(snap.DroneLevel, snap.NoiseLevel)
	g.SetDroneFreqs(DroneFreqs(snap.RootKey, snap.Scale))

	c.last.Store(&m)
	return m
}

func (c *ControlLoop) advanceChaos(dt time.Duration) (filter, feedback float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carry += dt.Seconds() * parameter.ChaosStepsPerSecond
	n := int(c.carry)
	c.carry -= float64(n)
	c.lorenz.Advance(n)
	return c.lorenz.Control()
}

// Last returns the most recent modulation, zero before the first step
func (c *ControlLoop) Last() Modulation {
	if m := c.last.Load(); m != nil {
		return *m
	}
	return Modulation{}
}

// DroneFreqs returns the root triad (degrees 0, 2, 4) in the drone octave
func DroneFreqs(root int, s music.Scale) [fx.DroneVoices]float64 {
	var f [fx.DroneVoices]float64
	for i := range f {
		f[i] = music.Frequency(root, s, parameter.DroneOctave, 2*i)
	}
	return f
}
