package fx

import (
	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
)

const butterworthQ = 0.70710678118654752

// crossover is a fourth-order Linkwitz-Riley split built from two cascaded Butterworth sections
type crossover struct {
	lp [2]*dsp.StereoBiquad
	hp [2]*dsp.StereoBiquad
}

func newCrossover(sampleRate, freq float64) crossover {
	var c crossover
	for i := range 2 {
		c.lp[i] = dsp.NewStereoBiquad(dsp.Lowpass, sampleRate, freq, butterworthQ)
		c.hp[i] = dsp.NewStereoBiquad(dsp.Highpass, sampleRate, freq, butterworthQ)
	}
	return c
}

func (c *crossover) split(l, r float64) (lowL, lowR, highL, highR float64) {
	lowL, lowR = c.lp[0].Process(l, r)
	lowL, lowR = c.lp[1].Process(lowL, lowR)
	highL, highR = c.hp[0].Process(l, r)
	highL, highR = c.hp[1].Process(highL, highR)
	return
}

// allpass sums both halves of the split; an LR4 pair sums flat with the crossover's phase
func (c *crossover) allpass(l, r float64) (float64, float64) {
	lowL, lowR, highL, highR := c.split(l, r)
	return lowL + highL, lowR + highR
}

// Band indexes the multiband compressor
type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh
)

// Multiband splits at LowBandHz and HighBandHz and compresses each band independently
// The low band passes through an allpass at the upper split so all three bands stay phase aligned
type Multiband struct {
	lowSplit  crossover
	highSplit crossover
	lowAlign  crossover
	comp      [3]*dsp.Compressor
}

// NewMultiband creates the three-band stage with per-band tuning
func NewMultiband(sampleRate float64) *Multiband {
	return &Multiband{
		lowSplit:  newCrossover(sampleRate, parameter.LowBandHz),
		highSplit: newCrossover(sampleRate, parameter.HighBandHz),
		lowAlign:  newCrossover(sampleRate, parameter.HighBandHz),
		comp: [3]*dsp.Compressor{
			dsp.NewCompressor(sampleRate, parameter.LowCompThreshold, parameter.LowCompRatio, parameter.LowCompAttack, parameter.LowCompRelease),
			dsp.NewCompressor(sampleRate, parameter.MidCompThreshold, parameter.MidCompRatio, parameter.MidCompAttack, parameter.MidCompRelease),
			dsp.NewCompressor(sampleRate, parameter.HighCompThreshold, parameter.HighCompRatio, parameter.HighCompAttack, parameter.HighCompRelease),
		},
	}
}

// Process splits, compresses and sums one stereo sample
func (m *Multiband) Process(l, r float64) (float64, float64) {
	lowL, lowR, restL, restR := m.lowSplit.split(l, r)
	midL, midR, highL, highR := m.highSplit.split(restL, restR)
	lowL, lowR = m.lowAlign.allpass(lowL, lowR)

	lowL, lowR = m.comp[BandLow].Process(lowL, lowR)
	midL, midR = m.comp[BandMid].Process(midL, midR)
	highL, highR = m.comp[BandHigh].Process(highL, highR)

	return lowL + midL + highL, lowR + midR + highR
}

// GainReduction returns the last gain reduction of a band in dB
func (m *Multiband) GainReduction(b Band) float64 {
	if b < BandLow || b > BandHigh {
		return 0
	}
	return m.comp[b].GainReduction()
}
