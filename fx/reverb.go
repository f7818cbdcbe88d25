package fx

import (
	"fmt"
	"math"
	"time"

	"github.com/ktye/fft"

	"github.com/lixenwraith/ricochet/vmath"
)

// Reverb is a uniformly partitioned FFT convolution against a generated stereo impulse response
// Latency is one block
type Reverb struct {
	block int
	parts int
	f     fft.FFT
	norm  float64

	ir      [2][]float64
	spectra [2][][]complex128 // IR partition spectra
	fdl     [2][][]complex128 // input spectra, ring indexed by head
	head    int
	input   [2][]float64
	out     [2][]float64
	tail    [2][]float64
	pos     int

	work []complex128
	acc  []complex128
}

// NewReverb builds the impulse response and its partition spectra
// block must be a power of two; decay is the exponential constant over the IR length
func NewReverb(sampleRate float64, length time.Duration, decay float64, block int, seed uint64) (*Reverb, error) {
	if block < 16 || block&(block-1) != 0 {
		return nil, fmt.Errorf("reverb block %d: %w", block, ErrBlockSize)
	}
	n := 2 * block
	f, err := fft.New(n)
	if err != nil {
		return nil, fmt.Errorf("reverb fft: %w", err)
	}

	irLen := int(length.Seconds() * sampleRate)
	if irLen < block {
		irLen = block
	}
	parts := (irLen + block - 1) / block

	r := &Reverb{
		block: block,
		parts: parts,
		f:     f,
		work:  make([]complex128, n),
		acc:   make([]complex128, n),
	}
	r.norm = r.probeNorm()

	rng := vmath.NewFastRand(seed)
	fade := int(0.004 * sampleRate)
	for ch := range 2 {
		ir := make([]float64, irLen)
		var energy float64
		for i := range ir {
			t := float64(i) / float64(irLen)
			v := rng.Bipolar() * math.Exp(-decay*t)
			if i < fade {
				v *= float64(i) / float64(fade)
			}
			ir[i] = v
			energy += v * v
		}
		if energy > 0 {
			g := 1 / math.Sqrt(energy)
			for i := range ir {
				ir[i] *= g
			}
		}
		r.ir[ch] = ir

		r.spectra[ch] = make([][]complex128, parts)
		r.fdl[ch] = make([][]complex128, parts)
		for p := range parts {
			clear(r.work)
			end := min((p+1)*block, irLen)
			for i, v := range ir[p*block : end] {
				r.work[i] = complex(v, 0)
			}
			r.spectra[ch][p] = append([]complex128(nil), r.f.Transform(r.work)...)
			r.fdl[ch][p] = make([]complex128, n)
		}
		r.input[ch] = make([]float64, block)
		r.out[ch] = make([]float64, block)
		r.tail[ch] = make([]float64, block)
	}
	return r, nil
}

// probeNorm measures the round-trip gain of Transform then Inverse
func (r *Reverb) probeNorm() float64 {
	clear(r.work)
	r.work[0] = 1
	y := r.f.Inverse(r.f.Transform(r.work))
	g := real(y[0])
	if math.Abs(g) < 1e-12 {
		return 1
	}
	return 1 / g
}

// Latency returns the input-to-output delay in samples
func (r *Reverb) Latency() int { return r.block }

// Process consumes one stereo sample and returns the wet signal
func (r *Reverb) Process(l, rr float64) (float64, float64) {
	outL, outR := r.out[0][r.pos], r.out[1][r.pos]
	r.input[0][r.pos] = l
	r.input[1][r.pos] = rr
	r.pos++
	if r.pos == r.block {
		r.pos = 0
		r.processBlock(0)
		r.processBlock(1)
		r.head++
		if r.head == r.parts {
			r.head = 0
		}
	}
	return outL, outR
}

func (r *Reverb) processBlock(ch int) {
	clear(r.work)
	for i, v := range r.input[ch] {
		r.work[i] = complex(v, 0)
	}
	copy(r.fdl[ch][r.head], r.f.Transform(r.work))

	clear(r.acc)
	for p := 0; p < r.parts; p++ {
		idx := r.head - p
		if idx < 0 {
			idx += r.parts
		}
		x := r.fdl[ch][idx]
		h := r.spectra[ch][p]
		for k := range r.acc {
			r.acc[k] += x[k] * h[k]
		}
	}

	y := r.f.Inverse(r.acc)
	out, tail := r.out[ch], r.tail[ch]
	for i := 0; i < r.block; i++ {
		out[i] = real(y[i])*r.norm + tail[i]
		tail[i] = real(y[r.block+i]) * r.norm
	}
}

// Reset silences the tail
func (r *Reverb) Reset() {
	for ch := range 2 {
		for _, s := range r.fdl[ch] {
			clear(s)
		}
		clear(r.input[ch])
		clear(r.out[ch])
		clear(r.tail[ch])
	}
	r.pos, r.head = 0, 0
}

// Impulse returns a copy of one channel's impulse response
func (r *Reverb) Impulse(ch int) []float64 {
	return append([]float64(nil), r.ir[ch&1]...)
}
