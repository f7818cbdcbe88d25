package fx

import (
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/ricochet/parameter"
)

// TestNeutralFluxTransparent verifies neutral flux settings pass audio unchanged
func TestNeutralFluxTransparent(t *testing.T) {
	f := NewFlux(44100)
	f.sync()
	for i := 0; i < 5000; i++ {
		l := math.Sin(float64(i) * 0.031)
		r := math.Cos(float64(i) * 0.017)
		ol, or := f.Process(l, r)
		if ol != l || or != r {
			t.Fatalf("sample %d: expected (%f,%f), got (%f,%f)", i, l, r, ol, or)
		}
	}
}

// TestFluxReturnsToBypass verifies a chain reset to neutral becomes transparent again
func TestFluxReturnsToBypass(t *testing.T) {
	f := NewFlux(44100)
	f.Set(FluxParams{Tape: 1, Fracture: 1, Voltage: 1, Dimension: 1, Prism: 1})
	f.sync()
	for i := 0; i < 44100; i++ {
		x := math.Sin(float64(i) * 0.05)
		f.Process(x, x)
	}

	f.Set(NeutralFlux())
	f.sync()
	for i := 0; i < 2*44100; i++ {
		f.Process(0, 0)
	}

	got := [5]float64{f.tape.Value(), f.fracture.Value(), f.voltage.Value(), f.dimension.Value(), f.prism.Value()}
	if got != [5]float64{0.5, 0, 0, 0, 0} {
		t.Fatalf("Expected controls settled on neutral, got %v", got)
	}
	for i := 0; i < 1000; i++ {
		l := math.Sin(float64(i) * 0.031)
		r := math.Cos(float64(i) * 0.017)
		if ol, or := f.Process(l, r); ol != l || or != r {
			t.Fatalf("sample %d: expected (%f,%f), got (%f,%f)", i, l, r, ol, or)
		}
	}
}

// TestFluxClamp verifies out-of-range and NaN controls are clamped
func TestFluxClamp(t *testing.T) {
	p := FluxParams{Tape: math.NaN(), Fracture: 3, Voltage: -1, Dimension: 0.5, Prism: 2}.Clamp()
	want := FluxParams{Tape: 0.5, Fracture: 1, Voltage: 0, Dimension: 0.5, Prism: 1}
	if p != want {
		t.Errorf("Expected %+v, got %+v", want, p)
	}
}

// TestFluxActiveStaysFinite verifies fully driven flux produces bounded finite output
func TestFluxActiveStaysFinite(t *testing.T) {
	f := NewFlux(44100)
	f.Set(FluxParams{Tape: 1, Fracture: 1, Voltage: 1, Dimension: 1, Prism: 1})
	f.sync()
	for i := 0; i < 44100; i++ {
		x := math.Sin(float64(i) * 0.05)
		l, r := f.Process(x, x)
		if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(r) || math.IsInf(r, 0) {
			t.Fatalf("non-finite output at %d", i)
		}
		if math.Abs(l) > 50 || math.Abs(r) > 50 {
			t.Fatalf("runaway output at %d: (%f,%f)", i, l, r)
		}
	}
}

// TestReverbImpulse verifies the reverb answers an impulse with its IR after one block
func TestReverbImpulse(t *testing.T) {
	const block = 64
	rv, err := NewReverb(44100, 50*time.Millisecond, 3, block, 7)
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}
	ir := rv.Impulse(0)
	total := block + len(ir) + block
	for i := 0; i < total; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		l, _ := rv.Process(in, 0)
		want := 0.0
		if k := i - block; k >= 0 && k < len(ir) {
			want = ir[k]
		}
		if math.Abs(l-want) > 1e-7 {
			t.Fatalf("sample %d: expected %g, got %g", i, want, l)
		}
	}
}

// TestReverbBlockSize verifies non power-of-two blocks are rejected
func TestReverbBlockSize(t *testing.T) {
	for _, b := range []int{0, 8, 100} {
		if _, err := NewReverb(44100, time.Second, 3, b, 1); err == nil {
			t.Errorf("block %d: expected error", b)
		}
	}
}

// TestReverbIRNormalized verifies each channel's IR has unit energy and the channels differ
func TestReverbIRNormalized(t *testing.T) {
	rv, err := NewReverb(44100, 200*time.Millisecond, 3, 128, 3)
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}
	l, r := rv.Impulse(0), rv.Impulse(1)
	var el, er float64
	same := true
	for i := range l {
		el += l[i] * l[i]
		er += r[i] * r[i]
		if l[i] != r[i] {
			same = false
		}
	}
	if math.Abs(el-1) > 1e-9 || math.Abs(er-1) > 1e-9 {
		t.Errorf("Expected unit energy, got %f and %f", el, er)
	}
	if same {
		t.Error("Expected decorrelated channels")
	}
}

// TestDelayEchoTiming verifies the echo lands DelayBeats after the input
func TestDelayEchoTiming(t *testing.T) {
	const sr = 48000
	d := NewDelay(sr, 120, 0)
	d.sync()
	want := int(parameter.DelayBeats * 60 / 120 * sr)
	for i := 0; i <= want+10; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		l, r := d.Process(in, in)
		if i == want {
			if math.Abs(l-1) > 1e-12 || math.Abs(r-1) > 1e-12 {
				t.Fatalf("Expected echo of 1 at %d, got (%f,%f)", i, l, r)
			}
			continue
		}
		if l != 0 || r != 0 {
			t.Fatalf("Expected silence at %d, got (%f,%f)", i, l, r)
		}
	}
}

// TestDelayFeedbackClamp verifies feedback never exceeds its ceiling
func TestDelayFeedbackClamp(t *testing.T) {
	d := NewDelay(44100, 120, 0.3)
	tests := []struct {
		in, want float64
	}{
		{2, parameter.DelayMaxFeedback},
		{-1, 0},
		{0.5, 0.5},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		d.SetFeedback(tt.in)
		if got := d.Feedback(); got != tt.want {
			t.Errorf("SetFeedback(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

// TestLimitBounds verifies the limiter never exceeds the ceiling and mutes NaN
func TestLimitBounds(t *testing.T) {
	tests := []struct {
		name string
		in   float64
	}{
		{"zero", 0},
		{"small", 0.5},
		{"knee", 0.85},
		{"hot", 3},
		{"negative hot", -3},
		{"inf", math.Inf(1)},
		{"neg inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Limit(tt.in)
			if math.Abs(got) > parameter.OutputCeiling {
				t.Errorf("Limit(%v) = %v exceeds ceiling", tt.in, got)
			}
			if tt.in != 0 && math.Signbit(got) != math.Signbit(tt.in) {
				t.Errorf("Limit(%v) = %v changed sign", tt.in, got)
			}
		})
	}
	if got := Limit(0.5); got != 0.5 {
		t.Errorf("Expected passthrough below knee, got %f", got)
	}
	if got := Limit(math.NaN()); got != 0 {
		t.Errorf("Expected NaN muted, got %f", got)
	}
}

// TestSoftClipUnity verifies unit input maps to unit output and the curve is odd
func TestSoftClipUnity(t *testing.T) {
	if got := SoftClip(1, parameter.SaturationDrive); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected 1, got %f", got)
	}
	if a, b := SoftClip(0.3, 2), SoftClip(-0.3, 2); math.Abs(a+b) > 1e-12 {
		t.Errorf("Expected odd symmetry, got %f and %f", a, b)
	}
	if got := SoftClip(0.4, 0); got != 0.4 {
		t.Errorf("Expected passthrough at zero drive, got %f", got)
	}
}

// TestMultibandQuietPassband verifies a quiet mid-band tone passes at unity
func TestMultibandQuietPassband(t *testing.T) {
	const sr = 44100
	m := NewMultiband(sr)
	var peak float64
	for i := 0; i < sr; i++ {
		x := 0.01 * math.Sin(2*math.Pi*1000*float64(i)/sr)
		l, _ := m.Process(x, x)
		if i > sr/2 {
			peak = math.Max(peak, math.Abs(l))
		}
	}
	if peak < 0.009 || peak > 0.011 {
		t.Errorf("Expected peak near 0.01, got %f", peak)
	}
	for b := BandLow; b <= BandHigh; b++ {
		if gr := m.GainReduction(b); gr != 0 {
			t.Errorf("band %d: expected no gain reduction, got %f", b, gr)
		}
	}
}

// TestMultibandFlatSum verifies the uncompressed band sum has unity magnitude across both crossovers
func TestMultibandFlatSum(t *testing.T) {
	const sr = 44100
	for _, freq := range []float64{60, 250, 1000, 2500, 4000, 6000, 10000} {
		m := NewMultiband(sr)
		var in, out float64
		for i := 0; i < sr; i++ {
			x := 0.01 * math.Sin(2*math.Pi*freq*float64(i)/sr)
			l, _ := m.Process(x, x)
			if i >= sr/2 {
				in += x * x
				out += l * l
			}
		}
		if ratio := math.Sqrt(out / in); math.Abs(ratio-1) > 0.005 {
			t.Errorf("%.0f Hz: expected unity gain, got %f", freq, ratio)
		}
	}
}

type impulseBus struct {
	n     int
	every int
}

func (b *impulseBus) Mix(dry, rev, del [][2]float64) {
	for i := range dry {
		v := 0.0
		if b.n%b.every == 0 {
			v = 0.9
		}
		dry[i] = [2]float64{v, -v}
		rev[i] = [2]float64{v * 0.5, v * 0.5}
		del[i] = [2]float64{v * 0.3, v * 0.3}
		b.n++
	}
}

type countTap struct{ frames int }

func (c *countTap) Capture(samples [][2]float64) { c.frames += len(samples) }

func testConfig() Config {
	return Config{SampleRate: 44100, Tempo: 120, DroneFreqs: [DroneVoices]float64{55, 65.4, 82.4}, Seed: 1}
}

// TestGraphSilentWhenIdle verifies an idle graph with muted bed renders exact silence
func TestGraphSilentWhenIdle(t *testing.T) {
	g, err := NewGraph(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	for i, s := range g.Render(4096) {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("Expected silence at %d, got %v", i, s)
		}
	}
}

// TestGraphOutputBounded verifies a hot bus with every stage active stays finite and under the ceiling
func TestGraphOutputBounded(t *testing.T) {
	g, err := NewGraph(testConfig(), &impulseBus{every: 300})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	g.SetBed(1, 1)
	g.SetVolume(1)
	g.SetFlux(FluxParams{Tape: 0.8, Fracture: 0.7, Voltage: 0.6, Dimension: 1, Prism: 0.3})
	tap := &countTap{}
	g.SetTap(tap)

	out := g.Render(44100)
	var energy float64
	for i, s := range out {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > parameter.OutputCeiling {
				t.Fatalf("sample %d out of bounds: %v", i, s)
			}
			energy += v * v
		}
	}
	if energy == 0 {
		t.Error("Expected audible output")
	}
	if tap.frames != len(out) {
		t.Errorf("Expected tap to see %d frames, got %d", len(out), tap.frames)
	}
	if g.Peak() <= 0 {
		t.Error("Expected non-zero peak meter")
	}
}

// TestGraphSettersClamp verifies setters clamp and repeat calls are stable
func TestGraphSettersClamp(t *testing.T) {
	g, err := NewGraph(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	g.SetFilter(1e9)
	if got, want := g.Filter(), 44100*parameter.NyquistFraction; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected filter %f, got %f", want, got)
	}
	g.SetFilter(-5)
	g.SetFilter(-5)
	if got := g.Filter(); got != parameter.MinFilterHz {
		t.Errorf("Expected filter %f, got %f", parameter.MinFilterHz, got)
	}
	g.SetReverbReturn(4)
	if got := g.ReverbReturn(); got != 1 {
		t.Errorf("Expected reverb return 1, got %f", got)
	}
	g.SetDelayFeedback(9)
	if got := g.DelayFeedback(); got != parameter.DelayMaxFeedback {
		t.Errorf("Expected feedback %f, got %f", parameter.DelayMaxFeedback, got)
	}
	if _, err := NewGraph(Config{SampleRate: 0}, nil); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
