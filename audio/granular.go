package audio

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// grain reads a Hann-windowed slice of a mono buffer at a fixed rate
type grain struct {
	data   []float64
	pos    float64
	rate   float64
	length int
	i      int
}

func (g *grain) Stream(samples [][2]float64) (int, bool) {
	for k := range samples {
		if g.i >= g.length {
			return k, k > 0
		}
		w := 0.5 - 0.5*math.Cos(vmath.TwoPi*float64(g.i)/float64(g.length))
		v := g.read(g.pos) * w
		samples[k] = [2]float64{v, v}
		g.pos += g.rate
		g.i++
	}
	return len(samples), true
}

func (g *grain) Err() error { return nil }

// read interpolates linearly and wraps around the buffer
func (g *grain) read(p float64) float64 {
	n := len(g.data)
	if n == 0 {
		return 0
	}
	p = math.Mod(p, float64(n))
	if p < 0 {
		p += float64(n)
	}
	i := int(p)
	frac := p - float64(i)
	a := g.data[i]
	b := g.data[(i+1)%n]
	return a + (b-a)*frac
}

// grainPosition maps event X within the boundary radius onto the buffer
func grainPosition(x, radius float64, n int) float64 {
	t := vmath.Clamp01(0.5 + 0.5*vmath.SafeDiv(x, radius))
	return t * float64(max(n-1, 0))
}

// newGranular spawns overlapping grains around a position derived from event X
func newGranular(sr, freq, velocity float64, smp *Sample, x, radius float64, rng *vmath.FastRand) beep.Streamer {
	rate := playbackRate(freq, smp.BaseFreq)
	center := grainPosition(x, radius, len(smp.Mono))
	jitter := parameter.GrainJitter.Seconds() * sr
	spread := parameter.GrainSpread.Seconds() * sr

	grains := make([]beep.Streamer, 0, parameter.GrainCount)
	for k := 0; k < parameter.GrainCount; k++ {
		dur := rng.Range(parameter.GrainMinDuration.Seconds(), parameter.GrainMaxDuration.Seconds())
		g := &grain{
			data:   smp.Mono,
			pos:    center + rng.Bipolar()*jitter,
			rate:   rate,
			length: max(int(dur*sr), 2),
		}
		onset := int(float64(k) / float64(parameter.GrainCount) * spread)
		onset += int(rng.Float64() * jitter)
		grains = append(grains, beep.Seq(generators.Silence(onset), g))
	}

	gain := velocity / math.Sqrt(parameter.GrainCount)
	return &effects.Gain{Streamer: beep.Mix(grains...), Gain: gain - 1}
}
