package dsp

import "math"

// DelayLine is a circular buffer with fractional read
type DelayLine struct {
	buf []float64
	w   int
}

// NewDelayLine allocates room for size samples of history, minimum 2
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{buf: make([]float64, size)}
}

// Len returns the capacity in samples
func (d *DelayLine) Len() int { return len(d.buf) }

// Write pushes one sample
func (d *DelayLine) Write(x float64) {
	d.buf[d.w] = x
	d.w++
	if d.w == len(d.buf) {
		d.w = 0
	}
}

// Read returns the sample written delay samples ago, interpolated linearly
// delay 1 is the most recent write; out-of-range delays are clamped
func (d *DelayLine) Read(delay float64) float64 {
	n := len(d.buf)
	if delay != delay || delay < 1 {
		delay = 1
	}
	if max := float64(n - 1); delay > max {
		delay = max
	}
	i := int(delay)
	frac := delay - float64(i)

	a := d.buf[d.index(i)]
	if frac == 0 {
		return a
	}
	b := d.buf[d.index(i+1)]
	return a + (b-a)*frac
}

func (d *DelayLine) index(back int) int {
	idx := d.w - back
	for idx < 0 {
		idx += len(d.buf)
	}
	return idx
}

// Clear zeroes the history
func (d *DelayLine) Clear() {
	clear(d.buf)
}

// DurationSamples converts seconds to a sample count
func DurationSamples(seconds, sampleRate float64) float64 {
	return math.Max(0, seconds*sampleRate)
}
