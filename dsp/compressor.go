package dsp

import (
	"math"
	"time"
)

// Compressor is a feed-forward peak compressor with a stereo-linked detector
type Compressor struct {
	threshold float64 // dB
	ratio     float64
	attack    float64
	release   float64
	env       float64
	gainDB    float64
}

// NewCompressor creates a compressor; ratio is clamped to at least 1
func NewCompressor(sampleRate, thresholdDB, ratio float64, attack, release time.Duration) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: thresholdDB,
		ratio:     ratio,
		attack:    timeCoef(attack, sampleRate),
		release:   timeCoef(release, sampleRate),
	}
}

func timeCoef(d time.Duration, sr float64) float64 {
	n := d.Seconds() * sr
	if n <= 0 {
		return 0
	}
	return math.Exp(-1 / n)
}

// Process applies gain reduction to a stereo pair
func (c *Compressor) Process(l, r float64) (float64, float64) {
	level := math.Max(math.Abs(l), math.Abs(r))
	coef := c.release
	if level > c.env {
		coef = c.attack
	}
	c.env = level + coef*(c.env-level)

	c.gainDB = 0
	if c.env > 1e-9 {
		over := 20*math.Log10(c.env) - c.threshold
		if over > 0 {
			c.gainDB = -over * (1 - 1/c.ratio)
		}
	}
	g := math.Pow(10, c.gainDB/20)
	return l * g, r * g
}

// GainReduction returns the last applied gain in dB, zero or negative
func (c *Compressor) GainReduction() float64 { return c.gainDB }

func (c *Compressor) Reset() {
	c.env = 0
	c.gainDB = 0
}
