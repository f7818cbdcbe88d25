package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

// synthSustain is the level percussive synth voices decay to before releasing
const synthSustain = 0.35

// fmRatio is the modulator to carrier frequency ratio
const fmRatio = 2.0

// synthFilter maps the color macro onto the configured filter kind
// Lowpass never drops below half the fundamental; highpass never rises above HighpassCeilingHz
func synthFilter(cfg patch.InstrumentConfig, freq, color float64) float64 {
	switch cfg.FilterType {
	case dsp.Highpass:
		return vmath.ExpLerp(parameter.FilterMinHz, parameter.HighpassCeilingHz, color)
	case dsp.Bandpass:
		return cfg.FilterFreq * math.Exp2((color-0.5)*2*parameter.BandpassOctaveSpread)
	default:
		return math.Max(vmath.ExpLerp(parameter.FilterMinHz, parameter.FilterMaxHz, color), freq/2)
	}
}

// fmIndex scales timbre by visual motion
func fmIndex(timbre, motion float64) float64 {
	return parameter.FMMaxIndex * timbre * (0.4 + 0.6*motion)
}

// effectiveColor brightens the color macro with the visual brightness
func effectiveColor(color, brightness float64) float64 {
	return vmath.Clamp01(color + 0.2*(brightness-0.5))
}

// newSynth builds the dual-oscillator model: fundamental, sub octave and optional FM
func newSynth(sr, freq, velocity float64, cfg patch.InstrumentConfig, vis state.Visual, seed uint64) beep.Streamer {
	osc := dsp.NewOscillator(cfg.Waveform, freq, sr, seed)
	sub := dsp.NewOscillator(dsp.WaveSine, freq/2, sr, seed)
	mod := dsp.NewOscillator(dsp.WaveSine, freq*fmRatio, sr, seed)
	index := fmIndex(cfg.Timbre, vis.Motion)

	cut := dsp.ClampFreq(synthFilter(cfg, freq, effectiveColor(cfg.Color, vis.Brightness)), sr)
	filter := dsp.NewBiquad(cfg.FilterType, sr, cut, cfg.FilterQ)

	drive := 1 + cfg.Drive*6
	norm := math.Tanh(drive)
	mixNorm := 1 / (1 + parameter.SubOscLevel)

	gen := func() (float64, bool) {
		x := osc.NextPM(mod.Next()*index) + sub.Next()*parameter.SubOscLevel
		x *= mixNorm
		if cfg.Drive > 0 {
			x = math.Tanh(x*drive) / norm
		}
		return filter.Process(x), true
	}

	env := dsp.NewEnvelope(sr, cfg.Attack, cfg.Decay, synthSustain, cfg.Release)
	return newShaped(monoFunc(gen), env, velocity)
}
