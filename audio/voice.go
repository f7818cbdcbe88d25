package audio

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/ricochet/dsp"
)

// voice is one trigger's node chain, owned by the bus until its stream drains
type voice struct {
	stream beep.Streamer
	gain   float64
	reverb float64
	delay  float64
}

// shaped applies an amplitude envelope and gain to a mono-or-stereo source
// The stream ends when either the source drains or the envelope goes idle
type shaped struct {
	src  beep.Streamer
	env  dsp.Envelope
	gain float64
}

func newShaped(src beep.Streamer, env dsp.Envelope, gain float64) *shaped {
	env.Trigger()
	return &shaped{src: src, env: env, gain: gain}
}

func (s *shaped) Stream(samples [][2]float64) (int, bool) {
	if !s.env.Active() {
		return 0, false
	}
	n, ok := s.src.Stream(samples)
	for i := 0; i < n; i++ {
		if !s.env.Active() {
			return i, i > 0
		}
		g := s.env.Next() * s.gain
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

func (s *shaped) Err() error { return s.src.Err() }

// lofi holds samples and quantizes amplitude; amount 0 returns s unchanged
func lofi(s beep.Streamer, amount float64) beep.Streamer {
	if amount <= 0 {
		return s
	}
	hold := 1 + int(amount*15)
	levels := math.Exp2(16 - amount*12)
	var held [2]float64
	count := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := 0; i < n; i++ {
			if count == 0 {
				held[0] = math.Round(samples[i][0]*levels) / levels
				held[1] = math.Round(samples[i][1]*levels) / levels
			}
			samples[i] = held
			count++
			if count == hold {
				count = 0
			}
		}
		return n, ok
	})
}

// finish wraps a source with lo-fi, pan and the hard voice length bound
func finish(src beep.Streamer, loFi, pan float64, maxSamples int) beep.Streamer {
	s := lofi(src, loFi)
	s = &effects.Pan{Streamer: s, Pan: pan}
	return beep.Take(maxSamples, s)
}

// monoFunc adapts a per-sample generator into a stream that ends when next reports false
func monoFunc(next func() (float64, bool)) beep.Streamer {
	done := false
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if done {
			return 0, false
		}
		for i := range samples {
			v, ok := next()
			if !ok {
				done = true
				return i, i > 0
			}
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}
