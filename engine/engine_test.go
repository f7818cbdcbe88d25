package engine

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lixenwraith/ricochet/audio"
	"github.com/lixenwraith/ricochet/fx"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

const testRate = 44100

// newTestInstrument builds a small, busy container so impacts arrive quickly
func newTestInstrument(t *testing.T) (*Instrument, *state.Store) {
	t.Helper()
	g := state.DefaultGlobal()
	g.Physics.BodyCount = 2
	g.Physics.Boundary.Radius = 60
	store := state.NewStore(g)

	voices := audio.NewEngine(audio.EngineConfig{SampleRate: testRate, Polyphony: 64, Seed: 9})
	rack := patch.NewRack(2, voices.Bank())
	in, err := NewInstrument(Config{Global: store, Rack: rack, Voices: voices, Seed: 9})
	if err != nil {
		t.Fatalf("NewInstrument: %v", err)
	}
	return in, store
}

// TestNewInstrumentIncomplete verifies missing collaborators are rejected
func TestNewInstrumentIncomplete(t *testing.T) {
	if _, err := NewInstrument(Config{}); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}
}

// TestTickDispatchesImpacts verifies impacts become voices and marks, and counts agree
func TestTickDispatchesImpacts(t *testing.T) {
	in, _ := newTestInstrument(t)
	if in.Frame() != nil {
		t.Fatal("Expected no frame before the first tick")
	}

	var impacts, voiced int
	var sawMark bool
	for i := 0; i < 600; i++ {
		f := in.Tick()
		impacts += f.Impacts
		voiced += f.Voiced
		if len(f.Physics.Marks) > 0 {
			sawMark = true
		}
		if f.Seq != uint64(i+1) {
			t.Fatalf("Expected seq %d, got %d", i+1, f.Seq)
		}
	}

	if impacts == 0 {
		t.Fatal("Expected impacts in a small container")
	}
	if !sawMark {
		t.Error("Expected marks for impacts")
	}
	if uint64(impacts) != in.Impacts() {
		t.Errorf("Expected %d total impacts, got %d", impacts, in.Impacts())
	}
	stats := in.Voices().Stats()
	if uint64(voiced) != stats.Played {
		t.Errorf("Expected %d played voices, got %d", voiced, stats.Played)
	}
	if voiced > impacts {
		t.Errorf("Voiced %d exceeds impacts %d", voiced, impacts)
	}
	if in.Frame().Seq != 600 {
		t.Errorf("Expected latest frame seq 600, got %d", in.Frame().Seq)
	}
}

// TestStopFreezesAndMarksDecay verifies stopped playback freezes bodies while marks fade out
func TestStopFreezesAndMarksDecay(t *testing.T) {
	in, store := newTestInstrument(t)

	ready := false
	for i := 0; i < 1200 && !ready; i++ {
		ready = len(in.Tick().Physics.Marks) > 0
	}
	if !ready {
		t.Fatal("Expected a mark before stopping")
	}

	store.Update(func(g *state.Global) { g.Playing = false })
	frozen := in.Tick().Physics.Bodies

	ticks := int(math.Ceil(parameter.SimTickRate/parameter.MarkDecayPerSecond)) + 1
	var last *Frame
	for i := 0; i < ticks; i++ {
		last = in.Tick()
		if last.Impacts != 0 {
			t.Fatalf("Expected no impacts while stopped, got %d", last.Impacts)
		}
	}
	for i, b := range last.Physics.Bodies {
		if b.Pos != frozen[i].Pos || b.Vel != frozen[i].Vel {
			t.Errorf("body %d moved while stopped: %v -> %v", i, frozen[i].Pos, b.Pos)
		}
	}
	if len(last.Physics.Marks) != 0 {
		t.Errorf("Expected marks to decay, %d left", len(last.Physics.Marks))
	}
}

// TestSuppressedImpactsStillMark verifies a zero-probability rack produces marks but no voices
func TestSuppressedImpactsStillMark(t *testing.T) {
	in, _ := newTestInstrument(t)
	for slot := 0; slot < in.Rack().Len(); slot++ {
		in.Rack().Patch(slot, func(c *patch.InstrumentConfig) { c.Probability = 0 })
	}

	suppressed := 0
	for i := 0; i < 600; i++ {
		f := in.Tick()
		if f.Voiced != 0 {
			t.Fatalf("Expected no voices, got %d", f.Voiced)
		}
		for _, m := range f.Physics.Marks {
			if !m.Suppressed {
				t.Fatal("Expected every mark to be suppressed")
			}
			suppressed++
		}
	}
	if suppressed == 0 {
		t.Error("Expected suppressed marks")
	}
	if s := in.Voices().Stats(); s.Suppressed == 0 || s.Played != 0 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

// TestDroppedImpactsStillMark verifies triggers past the polyphony ceiling leave a suppressed mark and no voice
func TestDroppedImpactsStillMark(t *testing.T) {
	g := state.DefaultGlobal()
	g.Physics.BodyCount = 8
	g.Physics.Boundary.Radius = 60
	store := state.NewStore(g)

	// The bus is never mixed, so the first voice holds the only slot for the whole run
	voices := audio.NewEngine(audio.EngineConfig{SampleRate: testRate, Polyphony: 1, Seed: 11})
	rack := patch.NewRack(8, voices.Bank())
	for slot := 0; slot < rack.Len(); slot++ {
		rack.Patch(slot, func(c *patch.InstrumentConfig) {
			c.Source = patch.SourceSynth
			c.Drum = patch.DrumNone
			c.Probability = 1
		})
	}
	in, err := NewInstrument(Config{Global: store, Rack: rack, Voices: voices, Seed: 11})
	if err != nil {
		t.Fatalf("NewInstrument: %v", err)
	}

	var impacts, voiced, dropMarks int
	for i := 0; i < 1200; i++ {
		f := in.Tick()
		impacts += f.Impacts
		voiced += f.Voiced
		if f.Impacts == 0 {
			continue
		}

		marks := f.Physics.Marks
		if len(marks) < f.Impacts {
			t.Fatalf("tick %d: %d impacts but only %d marks", i, f.Impacts, len(marks))
		}
		silent := 0
		for _, m := range marks[len(marks)-f.Impacts:] {
			if m.Life != 1 {
				t.Fatalf("tick %d: expected fresh marks at the tail, got life %f", i, m.Life)
			}
			if m.Suppressed {
				silent++
			}
		}
		if silent != f.Impacts-f.Voiced {
			t.Errorf("tick %d: expected %d suppressed marks, got %d", i, f.Impacts-f.Voiced, silent)
		}
		dropMarks += silent
	}

	s := voices.Stats()
	if voiced != 1 || s.Played != 1 || s.Live != 1 {
		t.Errorf("Expected exactly one voice at ceiling 1, got voiced=%d stats %+v", voiced, s)
	}
	if s.Dropped == 0 || s.Suppressed != 0 || s.Gated != 0 {
		t.Errorf("Expected only polyphony drops, got %+v", s)
	}
	if uint64(dropMarks) != s.Dropped || impacts != dropMarks+voiced {
		t.Errorf("Expected one mark per impact: impacts=%d voiced=%d dropped marks=%d dropped=%d", impacts, voiced, dropMarks, s.Dropped)
	}
}

// TestPointer verifies pointer engagement is published to the next tick
func TestPointer(t *testing.T) {
	in, _ := newTestInstrument(t)
	in.SetPointer(vmath.V(10, 0), true)
	p := in.pointer.Load()
	if p == nil || !p.Active || !p.Repel || p.Pos != vmath.V(10, 0) {
		t.Fatalf("Unexpected pointer %+v", p)
	}
	in.Tick()
	in.ReleasePointer()
	if in.pointer.Load() != nil {
		t.Error("Expected pointer released")
	}
}

// TestClockScheduler verifies ticking, pausing, and idempotent stop
func TestClockScheduler(t *testing.T) {
	var n atomic.Int64
	cs := NewClockScheduler("clock", 2*time.Millisecond, func() { n.Add(1) }, "audio")

	if cs.Name() != "clock" || len(cs.Dependencies()) != 1 {
		t.Errorf("Unexpected service identity %s %v", cs.Name(), cs.Dependencies())
	}
	if err := cs.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := cs.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := cs.Start(); !errors.Is(err, ErrSchedulerRunning) {
		t.Errorf("Expected ErrSchedulerRunning, got %v", err)
	}

	waitFor(t, func() bool { return cs.Ticks() >= 5 })
	if uint64(n.Load()) != cs.Ticks() {
		t.Errorf("Tick count mismatch: fn %d, scheduler %d", n.Load(), cs.Ticks())
	}

	cs.Pause()
	time.Sleep(10 * time.Millisecond)
	paused := cs.Ticks()
	time.Sleep(30 * time.Millisecond)
	if cs.Ticks() != paused {
		t.Errorf("Expected no ticks while paused, %d -> %d", paused, cs.Ticks())
	}
	cs.Resume()
	waitFor(t, func() bool { return cs.Ticks() > paused })

	if err := cs.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	stopped := cs.Ticks()
	time.Sleep(10 * time.Millisecond)
	if cs.Ticks() != stopped {
		t.Error("Expected no ticks after Stop")
	}
	if err := cs.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	if cs.IsRunning() {
		t.Error("Expected stopped")
	}
}

// TestClockSchedulerInitPaused verifies Init(true) holds the first tick
func TestClockSchedulerInitPaused(t *testing.T) {
	cs := NewClockScheduler("clock", time.Millisecond, func() {})
	cs.Init(true)
	if err := cs.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	cs.Stop()
	if cs.Ticks() != 0 {
		t.Errorf("Expected no ticks, got %d", cs.Ticks())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestControl(t *testing.T, g state.Global) (*ControlLoop, *fx.Graph, *state.VisualStore) {
	t.Helper()
	graph, err := fx.NewGraph(fx.Config{SampleRate: testRate, Tempo: g.Tempo, Seed: 1}, nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	vis := state.NewVisualStore(time.Minute)
	return NewControlLoop(graph, state.NewStore(g), vis, 7), graph, vis
}

// TestControlVisualEnergy verifies energy sweeps reverb return and delay feedback
func TestControlVisualEnergy(t *testing.T) {
	tests := []struct {
		name     string
		vis      state.Visual
		ret, fbk float64
	}{
		{"still", state.Visual{Motion: 0, Brightness: 0}, parameter.ReverbReturnMin, parameter.EnergyFeedbackMin},
		{"bright", state.Visual{Motion: 1, Brightness: 1}, parameter.ReverbReturnMax, parameter.EnergyFeedbackMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, graph, vis := newTestControl(t, state.DefaultGlobal())
			vis.Set(tt.vis)
			m := c.Advance(parameter.FrameUpdateInterval)

			if math.Abs(m.ReverbReturn-tt.ret) > 1e-9 || math.Abs(graph.ReverbReturn()-tt.ret) > 1e-9 {
				t.Errorf("Expected return %f, got %f (graph %f)", tt.ret, m.ReverbReturn, graph.ReverbReturn())
			}
			if math.Abs(m.DelayFeedback-tt.fbk) > 1e-9 || math.Abs(graph.DelayFeedback()-tt.fbk) > 1e-9 {
				t.Errorf("Expected feedback %f, got %f (graph %f)", tt.fbk, m.DelayFeedback, graph.DelayFeedback())
			}
			if c.Last() != m {
				t.Error("Expected Last to match the applied modulation")
			}
		})
	}
}

// TestControlGlobalFilter verifies the normalized filter reaches the graph within its clamp
func TestControlGlobalFilter(t *testing.T) {
	g := state.DefaultGlobal()
	g.GlobalFilter = 0.25
	c, graph, _ := newTestControl(t, g)

	m := c.Advance(parameter.FrameUpdateInterval)
	if want := state.GlobalFilterHz(0.25); m.FilterHz != want {
		t.Errorf("Expected %f Hz, got %f", want, m.FilterHz)
	}
	if graph.Filter() != m.FilterHz {
		t.Errorf("Expected graph filter %f, got %f", m.FilterHz, graph.Filter())
	}
	if m.Chaos || m.ChaosFilter != 0 {
		t.Error("Expected chaos off")
	}
}

// TestControlChaos verifies chaos bounds, determinism, and evolution
func TestControlChaos(t *testing.T) {
	g := state.DefaultGlobal()
	g.Chaos = true
	a, _, _ := newTestControl(t, g)
	b, _, _ := newTestControl(t, g)

	ceiling := state.GlobalFilterHz(g.GlobalFilter)
	var first Modulation
	changed := false
	for i := 0; i < 200; i++ {
		ma := a.Advance(50 * time.Millisecond)
		mb := b.Advance(50 * time.Millisecond)
		if ma != mb {
			t.Fatalf("step %d: same seed diverged", i)
		}
		if i == 0 {
			first = ma
		} else if ma.ChaosFilter != first.ChaosFilter {
			changed = true
		}
		if ma.FilterHz > ceiling+1e-9 {
			t.Fatalf("step %d: chaos opened filter past %f: %f", i, ceiling, ma.FilterHz)
		}
		if ma.DelayFeedback < parameter.ChaosFeedbackMin || ma.DelayFeedback > parameter.ChaosFeedbackMax {
			t.Fatalf("step %d: feedback %f out of range", i, ma.DelayFeedback)
		}
	}
	if !changed {
		t.Error("Expected chaos to evolve")
	}
}

// TestDroneFreqs verifies the drone triad follows the scale
func TestDroneFreqs(t *testing.T) {
	f := DroneFreqs(0, music.ScaleMajor)
	for i := range f {
		want := music.Frequency(0, music.ScaleMajor, parameter.DroneOctave, 2*i)
		if f[i] != want {
			t.Errorf("voice %d: expected %f, got %f", i, want, f[i])
		}
		if i > 0 && f[i] <= f[i-1] {
			t.Errorf("Expected ascending triad, got %v", f)
		}
	}
}
