package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/vmath"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// generateKick renders a pitched decaying sine with an exponential pitch drop
func generateKick(sr, startFreq, endFreq float64) floatBuffer {
	n := int(sr * parameter.KickDecay.Seconds())
	buf := make(floatBuffer, n)

	phase := 0.0
	for i := range buf {
		t := float64(i) / float64(n)
		freq := endFreq + (startFreq-endFreq)*math.Exp(-8*t)
		amp := math.Exp(-5 * t)
		buf[i] = math.Tanh(math.Sin(vmath.TwoPi*phase) * amp * parameter.KickSaturation)
		phase += freq / sr
	}
	return buf
}

// generateGlitch renders a band-passed, stepped noise burst centered by color
func generateGlitch(sr, color float64, rng *vmath.FastRand) floatBuffer {
	n := int(sr * parameter.GlitchDecay.Seconds())
	buf := make(floatBuffer, n)
	step := 1 + rng.Intn(24)
	held := 0.0
	for i := range buf {
		if i%step == 0 {
			held = rng.Bipolar()
		}
		t := float64(i) / float64(n)
		buf[i] = held * math.Exp(-6*t)
	}
	center := vmath.ExpLerp(800, 8000, color)
	filterBuffer(buf, dsp.Bandpass, sr, center, 4)
	normalizePeak(buf, 0.9)
	return buf
}

// generateClick renders a short high-passed noise tick
func generateClick(sr float64, rng *vmath.FastRand) floatBuffer {
	n := int(sr * parameter.ClickDecay.Seconds())
	buf := make(floatBuffer, n)
	for i := range buf {
		t := float64(i) / float64(n)
		buf[i] = rng.Bipolar() * math.Exp(-40*t)
	}
	filterBuffer(buf, dsp.Highpass, sr, 3000, 0.707)
	normalizePeak(buf, 0.9)
	return buf
}

func filterBuffer(buf floatBuffer, kind dsp.FilterKind, sr, freq, q float64) {
	f := dsp.NewBiquad(kind, sr, dsp.ClampFreq(freq, sr), q)
	for i, v := range buf {
		buf[i] = f.Process(v)
	}
}

// normalizePeak scales buf so its absolute peak equals target
func normalizePeak(buf floatBuffer, target float64) {
	var peak float64
	for _, v := range buf {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 1e-9 {
		return
	}
	g := target / peak
	for i := range buf {
		buf[i] *= g
	}
}

// drumBuffer dispatches the two-parameter drum model
// pitch drives the kick's end frequency; color centers the glitch band
func drumBuffer(kind patch.DrumKind, sr, pitch, color float64, rng *vmath.FastRand) floatBuffer {
	switch kind {
	case patch.DrumKick:
		end := vmath.Clamp(pitch, 30, 120)
		return generateKick(sr, end*parameter.KickStartFreq/parameter.KickEndFreq, end)
	case patch.DrumClick:
		return generateClick(sr, rng)
	default:
		return generateGlitch(sr, color, rng)
	}
}

// bufferStreamer plays a mono buffer once at gain
func bufferStreamer(buf floatBuffer, gain float64) beep.Streamer {
	pos := 0
	return monoFunc(func() (float64, bool) {
		if pos >= len(buf) {
			return 0, false
		}
		v := buf[pos] * gain
		pos++
		return v, true
	})
}
