package audio

import (
	"math"
	"testing"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

const testRate = 44100

func newTestEngine(poly int) *Engine {
	return NewEngine(EngineConfig{SampleRate: testRate, Polyphony: poly, Seed: 7})
}

func wallEvent(edge int) physics.ImpactEvent {
	return physics.ImpactEvent{Pos: vmath.V(40, -20), Speed: 300, Edge: edge, Class: physics.ClassWall, Source: physics.SourceBody}
}

func flockEvent(class physics.ImpactClass) physics.ImpactEvent {
	return physics.ImpactEvent{Pos: vmath.V(-10, 5), Speed: 120, Class: class, Source: physics.SourceFlock}
}

// pull renders the bus until every voice drains or limit frames elapse
func pull(b *Bus, limit int) (frames int, finite bool) {
	dry := make([][2]float64, 256)
	rev := make([][2]float64, 256)
	del := make([][2]float64, 256)
	finite = true
	for frames < limit && b.Live() > 0 {
		b.Mix(dry, rev, del)
		for i := range dry {
			for _, v := range [...]float64{dry[i][0], dry[i][1], rev[i][0], del[i][1]} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					finite = false
				}
			}
		}
		frames += len(dry)
	}
	return frames, finite
}

// TestPolyphonyCeiling verifies N+1 triggers against a ceiling of N yield exactly N voices
func TestPolyphonyCeiling(t *testing.T) {
	const ceiling = 4
	e := newTestEngine(ceiling)
	cfg := patch.Default()
	g := state.DefaultGlobal()

	for i := 0; i < ceiling; i++ {
		if r := e.Trigger(wallEvent(i), cfg, g, state.DefaultVisual); !r.Voiced {
			t.Fatalf("trigger %d: expected voiced, got %+v", i, r)
		}
	}
	r := e.Trigger(wallEvent(0), cfg, g, state.DefaultVisual)
	if r.Voiced || !r.Dropped {
		t.Errorf("Expected overflow trigger dropped, got %+v", r)
	}

	st := e.Stats()
	if st.Live != ceiling {
		t.Errorf("Expected %d live voices, got %d", ceiling, st.Live)
	}
	if st.Dropped != 1 || st.Played != ceiling {
		t.Errorf("Expected played=%d dropped=1, got %+v", ceiling, st)
	}
}

// TestVoicesDrainAndRelease verifies voices self-terminate and free their slots
func TestVoicesDrainAndRelease(t *testing.T) {
	e := newTestEngine(4)
	cfg := patch.Default()
	g := state.DefaultGlobal()
	for i := 0; i < 4; i++ {
		e.Trigger(wallEvent(i), cfg, g, state.DefaultVisual)
	}

	_, finite := pull(e.Bus(), testRate*7)
	if !finite {
		t.Error("Expected finite bus output")
	}
	st := e.Stats()
	if st.Live != 0 {
		t.Fatalf("Expected all voices drained, %d live", st.Live)
	}
	if st.Completed != 4 {
		t.Errorf("Expected 4 completed voices, got %d", st.Completed)
	}
	if r := e.Trigger(wallEvent(1), cfg, g, state.DefaultVisual); !r.Voiced {
		t.Errorf("Expected slot reuse after drain, got %+v", r)
	}
}

// TestProbabilityGate verifies probability 0 suppresses everything and 1 voices everything
func TestProbabilityGate(t *testing.T) {
	g := state.DefaultGlobal()

	e := newTestEngine(600)
	cfg := patch.Default()
	cfg.Probability = 0
	for i := 0; i < 500; i++ {
		if r := e.Trigger(wallEvent(i%5), cfg, g, state.DefaultVisual); !r.Suppressed || r.Voiced {
			t.Fatalf("attempt %d: expected suppressed, got %+v", i, r)
		}
	}
	if st := e.Stats(); st.Live != 0 || st.Played != 0 {
		t.Errorf("Expected no voices, got %+v", st)
	}

	e = newTestEngine(600)
	cfg.Probability = 1
	for i := 0; i < 500; i++ {
		if r := e.Trigger(wallEvent(i%5), cfg, g, state.DefaultVisual); !r.Voiced {
			t.Fatalf("attempt %d: expected voiced, got %+v", i, r)
		}
	}
	if st := e.Stats(); st.Played != 500 || st.Suppressed != 0 {
		t.Errorf("Expected 500 played, got %+v", st)
	}
}

// TestPhysicalModelNoop verifies the physical source consumes events without allocating a voice
func TestPhysicalModelNoop(t *testing.T) {
	e := newTestEngine(4)
	cfg := patch.Default()
	cfg.Source = patch.SourcePhysical
	r := e.Trigger(wallEvent(2), cfg, state.DefaultGlobal(), state.DefaultVisual)
	if r != (Result{}) {
		t.Errorf("Expected zero result, got %+v", r)
	}
	if st := e.Stats(); st.Live != 0 || st.Played != 0 {
		t.Errorf("Expected no voice, got %+v", st)
	}
}

// TestFlockEuclideanGate verifies flock boundary events follow the Euclidean pattern
func TestFlockEuclideanGate(t *testing.T) {
	e := newTestEngine(32)
	cfg := patch.DefaultFlock()
	cfg.Probability = 1
	cfg.Euclid = patch.Euclid{Hits: 3, Steps: 8}
	g := state.DefaultGlobal()

	voiced, gated := 0, 0
	for i := 0; i < 8; i++ {
		r := e.Trigger(flockEvent(physics.ClassBoundary), cfg, g, state.DefaultVisual)
		if r.Voiced {
			voiced++
		}
		if r.Gated {
			gated++
		}
	}
	if voiced != 3 || gated != 5 {
		t.Errorf("Expected 3 voiced and 5 gated, got %d and %d", voiced, gated)
	}
}

// TestEuclidStepPerSlot verifies only gated flock steps advance a counter, keyed by the owning slot
func TestEuclidStepPerSlot(t *testing.T) {
	e := newTestEngine(32)
	cfg := patch.DefaultFlock()
	cfg.Probability = 1
	cfg.Euclid = patch.Euclid{Hits: 3, Steps: 8}
	g := state.DefaultGlobal()

	for i := 0; i < 3; i++ {
		e.Trigger(flockEvent(physics.ClassBoundary), cfg, g, state.DefaultVisual)
	}
	e.Trigger(flockEvent(physics.ClassProximity), cfg, g, state.DefaultVisual)
	body := wallEvent(1)
	body.Entity = 4
	e.Trigger(body, cfg, g, state.DefaultVisual)

	if n := e.steps[patch.FlockSlot]; n != 3 {
		t.Errorf("Expected flock slot at step 3, got %d", n)
	}
	if len(e.steps) != 1 {
		t.Errorf("Expected a counter for the flock slot only, got %v", e.steps)
	}
	if s := SlotOf(body); s != 4 {
		t.Errorf("Expected body slot 4, got %d", s)
	}
	if s := SlotOf(flockEvent(physics.ClassBoundary)); s != patch.FlockSlot {
		t.Errorf("Expected flock slot, got %d", s)
	}
}

// TestProximityBypassesGate verifies proximity clicks sound even when the pattern has no hits
func TestProximityBypassesGate(t *testing.T) {
	e := newTestEngine(32)
	cfg := patch.DefaultFlock()
	cfg.Probability = 1
	cfg.Euclid = patch.Euclid{Hits: 0, Steps: 8}
	g := state.DefaultGlobal()

	if r := e.Trigger(flockEvent(physics.ClassBoundary), cfg, g, state.DefaultVisual); !r.Gated {
		t.Errorf("Expected boundary event gated, got %+v", r)
	}
	if r := e.Trigger(flockEvent(physics.ClassProximity), cfg, g, state.DefaultVisual); !r.Voiced {
		t.Errorf("Expected proximity click voiced, got %+v", r)
	}
}

// TestSourceModelsRender verifies every sounding model produces finite audio and drains
func TestSourceModelsRender(t *testing.T) {
	g := state.DefaultGlobal()
	hot := state.Visual{Motion: 0.95, Brightness: 0.9, Hue: 10}

	tests := []struct {
		name string
		mod  func(*patch.InstrumentConfig)
	}{
		{"synth saw bandpass", func(c *patch.InstrumentConfig) {
			c.Waveform = dsp.WaveSaw
			c.FilterType = dsp.Bandpass
			c.Drive = 1
		}},
		{"synth highpass lofi", func(c *patch.InstrumentConfig) {
			c.FilterType = dsp.Highpass
			c.LoFi = 0.8
		}},
		{"sample glass", func(c *patch.InstrumentConfig) {
			c.Source = patch.SourceSample
			c.SampleID = "glass"
		}},
		{"granular air", func(c *patch.InstrumentConfig) {
			c.Source = patch.SourceGranular
			c.SampleID = "air"
		}},
		{"kick", func(c *patch.InstrumentConfig) { c.Drum = patch.DrumKick }},
		{"click", func(c *patch.InstrumentConfig) { c.Drum = patch.DrumClick }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(4)
			cfg := patch.Default()
			tt.mod(&cfg)
			if r := e.Trigger(wallEvent(3), cfg, g, hot); !r.Voiced {
				t.Fatalf("Expected voiced, got %+v", r)
			}
			frames, finite := pull(e.Bus(), testRate*7)
			if !finite {
				t.Error("Expected finite output")
			}
			if e.Bus().Live() != 0 {
				t.Errorf("Expected voice drained after %d frames", frames)
			}
		})
	}
}

// TestUnknownSampleFallsBack verifies an unknown sample id still voices via the default patch
func TestUnknownSampleFallsBack(t *testing.T) {
	e := newTestEngine(4)
	cfg := patch.Default()
	cfg.Source = patch.SourceSample
	cfg.SampleID = "missing"
	if r := e.Trigger(wallEvent(0), cfg, state.DefaultGlobal(), state.DefaultVisual); !r.Voiced {
		t.Errorf("Expected voiced, got %+v", r)
	}
}

// TestVelocityMapping verifies speed maps to a bounded velocity
func TestVelocityMapping(t *testing.T) {
	tests := []struct {
		speed, want float64
	}{
		{0, 0.15},
		{300, 0.5},
		{600, 1},
		{5000, 1},
		{math.NaN(), 0.15},
	}
	for _, tt := range tests {
		if got := velocity(tt.speed); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("velocity(%v): expected %v, got %v", tt.speed, tt.want, got)
		}
	}
}

// TestStutterRepeats verifies stutter engages only above the motion threshold
func TestStutterRepeats(t *testing.T) {
	if got := stutterRepeats(0.5); got != 0 {
		t.Errorf("Expected no stutter, got %d", got)
	}
	if got := stutterRepeats(1); got != 6 {
		t.Errorf("Expected 6 repeats at full motion, got %d", got)
	}
	if got := playbackRate(880, 440); got != 2 {
		t.Errorf("Expected rate 2, got %f", got)
	}
	if got := playbackRate(1, 0); got != minRate {
		t.Errorf("Expected rate clamped to %f, got %f", minRate, got)
	}
}

// TestSynthFilterClamps verifies lowpass floor and highpass ceiling
func TestSynthFilterClamps(t *testing.T) {
	cfg := patch.Default()
	if got := synthFilter(cfg, 1000, 0); got != 500 {
		t.Errorf("Expected lowpass floor at half fundamental, got %f", got)
	}
	cfg.FilterType = dsp.Highpass
	if got := synthFilter(cfg, 1000, 1); math.Abs(got-1200) > 1e-9 {
		t.Errorf("Expected highpass ceiling 1200, got %f", got)
	}
	cfg.FilterType = dsp.Bandpass
	cfg.FilterFreq = 1000
	if got := synthFilter(cfg, 200, 0.5); math.Abs(got-1000) > 1e-9 {
		t.Errorf("Expected bandpass at base, got %f", got)
	}
}

// TestDrumBuffers verifies each drum kind renders a bounded non-empty buffer
func TestDrumBuffers(t *testing.T) {
	rng := vmath.NewFastRand(5)
	for _, kind := range []patch.DrumKind{patch.DrumKick, patch.DrumGlitch, patch.DrumClick} {
		buf := drumBuffer(kind, testRate, 55, 0.5, rng)
		if len(buf) == 0 {
			t.Fatalf("%v: empty buffer", kind)
		}
		for i, v := range buf {
			if math.IsNaN(v) || math.Abs(v) > 1 {
				t.Fatalf("%v: sample %d out of range: %f", kind, i, v)
			}
		}
	}
}
