package fx

import (
	"math"
	"sync/atomic"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// FluxParams are the five flux controls, each [0,1]
// Tape is neutral at 0.5; the others are neutral at 0
type FluxParams struct {
	Tape      float64 `toml:"tape"`
	Fracture  float64 `toml:"fracture"`
	Voltage   float64 `toml:"voltage"`
	Dimension float64 `toml:"dimension"`
	Prism     float64 `toml:"prism"`
}

// NeutralFlux returns settings under which the chain is transparent
func NeutralFlux() FluxParams {
	return FluxParams{Tape: 0.5}
}

// Clamp limits every control to [0,1]; NaN becomes neutral
func (p FluxParams) Clamp() FluxParams {
	p.Tape = vmath.Clamp01(vmath.Finite(p.Tape, 0.5))
	p.Fracture = vmath.Clamp01(p.Fracture)
	p.Voltage = vmath.Clamp01(p.Voltage)
	p.Dimension = vmath.Clamp01(p.Dimension)
	p.Prism = vmath.Clamp01(p.Prism)
	return p
}

// Flux is the tape, fracture, voltage, dimension, prism chain
// Params are published atomically and approached per sample
type Flux struct {
	sr     float64
	params atomic.Pointer[FluxParams]

	tape, fracture, voltage, dimension, prism dsp.Smoother

	tapeL, tapeR *dsp.DelayLine
	tapeLP       *dsp.StereoBiquad
	tapeBright   *dsp.StereoBiquad

	fracL, fracR *dsp.DelayLine

	dimL, dimR *dsp.DelayLine
	dimPhase   float64

	prismPhase float64
}

// NewFlux creates a neutral chain
func NewFlux(sampleRate float64) *Flux {
	n := NeutralFlux()
	f := &Flux{
		sr:         sampleRate,
		tape:       dsp.NewSmoother(sampleRate, parameter.FluxSmoothing, n.Tape),
		fracture:   dsp.NewSmoother(sampleRate, parameter.FluxSmoothing, 0),
		voltage:    dsp.NewSmoother(sampleRate, parameter.FluxSmoothing, 0),
		dimension:  dsp.NewSmoother(sampleRate, parameter.FluxSmoothing, 0),
		prism:      dsp.NewSmoother(sampleRate, parameter.FluxSmoothing, 0),
		tapeL:      dsp.NewDelayLine(int(parameter.TapeMaxDelay.Seconds()*sampleRate) + 2),
		tapeR:      dsp.NewDelayLine(int(parameter.TapeMaxDelay.Seconds()*sampleRate) + 2),
		tapeLP:     dsp.NewStereoBiquad(dsp.Lowpass, sampleRate, parameter.FilterMaxHz, butterworthQ),
		tapeBright: dsp.NewStereoBiquad(dsp.Highpass, sampleRate, 2500, butterworthQ),
		fracL:      dsp.NewDelayLine(int(parameter.FractureMaxDelay.Seconds()*sampleRate) + 2),
		fracR:      dsp.NewDelayLine(int(parameter.FractureMaxDelay.Seconds()*sampleRate) + 2),
		dimL:       dsp.NewDelayLine(int((parameter.DimensionDelayR+2*parameter.DimensionModDepth).Seconds()*sampleRate) + 2),
		dimR:       dsp.NewDelayLine(int((parameter.DimensionDelayR+2*parameter.DimensionModDepth).Seconds()*sampleRate) + 2),
	}
	f.params.Store(&n)
	return f
}

// Set publishes all five controls as one update
func (f *Flux) Set(p FluxParams) {
	p = p.Clamp()
	f.params.Store(&p)
}

// Params returns the latest published controls
func (f *Flux) Params() FluxParams { return *f.params.Load() }

// sync copies published targets into the smoothers; called once per block
func (f *Flux) sync() {
	p := f.params.Load()
	f.tape.SetTarget(p.Tape)
	f.fracture.SetTarget(p.Fracture)
	f.voltage.SetTarget(p.Voltage)
	f.dimension.SetTarget(p.Dimension)
	f.prism.SetTarget(p.Prism)
}

// Process runs one stereo sample through the chain
func (f *Flux) Process(l, r float64) (float64, float64) {
	l, r = f.processTape(l, r, f.tape.Next())
	l, r = f.processFracture(l, r, f.fracture.Next())
	l, r = f.processVoltage(l, r, f.voltage.Next())
	l, r = f.processDimension(l, r, f.dimension.Next())
	l, r = f.processPrism(l, r, f.prism.Next())
	return l, r
}

// processTape sweeps delay and cutoff together around the 0.5 center
// Above center slows and darkens, below center brightens
func (f *Flux) processTape(l, r, c float64) (float64, float64) {
	f.tapeL.Write(l)
	f.tapeR.Write(r)
	dev := (c - 0.5) * 2
	if dev == 0 {
		return l, r
	}
	w := math.Abs(dev)

	if dev > 0 {
		delay := 1 + dev*dev*parameter.TapeMaxDelay.Seconds()*f.sr
		f.tapeLP.SetFreq(vmath.ExpLerp(parameter.FilterMaxHz, parameter.TapeDarkHz, dev))
		wl, wr := f.tapeLP.Process(f.tapeL.Read(delay), f.tapeR.Read(delay))
		return l*(1-w) + wl*w, r*(1-w) + wr*w
	}

	hl, hr := f.tapeBright.Process(l, r)
	return l + hl*w*0.8, r + hr*w*0.8
}

// processFracture is a short feedback delay that approaches self-oscillation as amount rises
func (f *Flux) processFracture(l, r, a float64) (float64, float64) {
	delay := vmath.Lerp(parameter.FractureMaxDelay.Seconds(), parameter.FractureMinDelay.Seconds(), a) * f.sr
	fb := a * parameter.FractureMaxFeedback
	wl := f.fracL.Read(delay)
	wr := f.fracR.Read(delay * 1.07)
	f.fracL.Write(math.Tanh(l + wl*fb))
	f.fracR.Write(math.Tanh(r + wr*fb))
	if a == 0 {
		return l, r
	}
	return l + wl*a, r + wr*a
}

// processVoltage hard-clips with rising gain and reduces bit depth
func (f *Flux) processVoltage(l, r, v float64) (float64, float64) {
	if v == 0 {
		return l, r
	}
	gain := 1 + v*(parameter.VoltageMaxGain-1)
	levels := math.Exp2(16 - v*12)
	crush := func(x float64) float64 {
		x = vmath.Clamp(x*gain, -1, 1)
		return math.Round(x*levels) / levels
	}
	makeup := 1 / math.Sqrt(gain)
	return l*(1-v) + crush(l)*v*makeup*2, r*(1-v) + crush(r)*v*makeup*2
}

// processDimension widens with two modulated short delays cross-subtracted between channels
func (f *Flux) processDimension(l, r, d float64) (float64, float64) {
	mid := (l + r) * 0.5
	f.dimL.Write(mid)
	f.dimR.Write(mid)

	f.dimPhase += parameter.DimensionModRate / f.sr
	f.dimPhase -= math.Floor(f.dimPhase)
	if d == 0 {
		return l, r
	}

	mod := math.Sin(vmath.TwoPi*f.dimPhase) * parameter.DimensionModDepth.Seconds() * f.sr
	wl := f.dimL.Read(parameter.DimensionDelayL.Seconds()*f.sr + mod)
	wr := f.dimR.Read(parameter.DimensionDelayR.Seconds()*f.sr - mod)
	side := (wl - wr) * 0.5 * d
	return l + side, r - side
}

// processPrism ring-modulates with a sine whose frequency follows the control
func (f *Flux) processPrism(l, r, p float64) (float64, float64) {
	if p == 0 {
		return l, r
	}
	freq := vmath.ExpLerp(parameter.PrismMinHz, parameter.PrismMaxHz, p)
	f.prismPhase += freq / f.sr
	f.prismPhase -= math.Floor(f.prismPhase)
	c := math.Sin(vmath.TwoPi * f.prismPhase)
	return l*(1-p) + l*c*p, r*(1-p) + r*c*p
}
