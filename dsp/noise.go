package dsp

import "github.com/lixenwraith/ricochet/vmath"

// Noise produces white and pink noise from a seeded generator
type Noise struct {
	rng                        *vmath.FastRand
	b0, b1, b2, b3, b4, b5, b6 float64
}

func NewNoise(seed uint64) *Noise {
	return &Noise{rng: vmath.NewFastRand(seed)}
}

// White returns a uniform sample in [-1, 1)
func (n *Noise) White() float64 {
	return n.rng.Bipolar()
}

// Pink returns approximately -3 dB/octave noise using Paul Kellet's refined filter
func (n *Noise) Pink() float64 {
	w := n.rng.Bipolar()
	n.b0 = 0.99886*n.b0 + w*0.0555179
	n.b1 = 0.99332*n.b1 + w*0.0750759
	n.b2 = 0.96900*n.b2 + w*0.1538520
	n.b3 = 0.86650*n.b3 + w*0.3104856
	n.b4 = 0.55000*n.b4 + w*0.5329522
	n.b5 = -0.7616*n.b5 - w*0.0168980
	out := n.b0 + n.b1 + n.b2 + n.b3 + n.b4 + n.b5 + n.b6 + w*0.5362
	n.b6 = w * 0.115926
	return out * 0.11
}
