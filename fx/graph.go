// Package fx implements the fixed effects topology between the voice bus and the output
package fx

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

var ErrBlockSize = errors.New("block size must be a power of two >= 16")

// graphChunk is the control-rate block; atomics are read once per chunk
const graphChunk = 256

// filterUpdateEvery is how often the tone filter recomputes coefficients while gliding
const filterUpdateEvery = 8

// BusSource fills the voice bus for one block
// Implementations overwrite all three buffers, which share a length
type BusSource interface {
	Mix(dry, reverbSend, delaySend [][2]float64)
}

// Tap receives a copy of the final output
type Tap interface {
	Capture(samples [][2]float64)
}

type tapHolder struct{ t Tap }

// Defaults applied by NewGraph
const (
	DefaultReverbReturn  = 0.35
	DefaultDelayFeedback = 0.35
	DefaultVolume        = 0.8
)

// Graph is the fixed effects topology as a beep.Streamer
// Stream is called only from the audio goroutine; setters are safe from any goroutine
type Graph struct {
	sr  float64
	bus BusSource

	reverb *Reverb
	delay  *Delay
	bed    *Bed
	tone   *dsp.StereoBiquad
	bands  *Multiband
	flux   *Flux
	master *effects.Volume

	filterHz     *atomicFloat
	reverbReturn *atomicFloat
	volume       *atomicFloat

	filterS dsp.Smoother
	returnS dsp.Smoother
	volumeS dsp.Smoother // block rate

	dry, rev, del, bedBuf [][2]float64

	tap  atomic.Pointer[tapHolder]
	peak *atomicFloat
}

// Config sizes a graph
type Config struct {
	SampleRate float64
	Tempo      float64
	DroneFreqs [DroneVoices]float64
	Seed       uint64
}

// NewGraph builds the whole topology once; bus may be nil for a bed-only graph
func NewGraph(cfg Config, bus BusSource) (*Graph, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) {
		return nil, fmt.Errorf("sample rate %v: %w", cfg.SampleRate, ErrSampleRate)
	}
	rev, err := NewReverb(cfg.SampleRate, parameter.ReverbLength, parameter.ReverbDecay, parameter.ReverbBlock, cfg.Seed+13)
	if err != nil {
		return nil, err
	}
	sr := cfg.SampleRate
	open := dsp.ClampFreq(parameter.FilterMaxHz, sr)
	ctrlRate := sr / graphChunk

	g := &Graph{
		sr:           sr,
		bus:          bus,
		reverb:       rev,
		delay:        NewDelay(sr, cfg.Tempo, DefaultDelayFeedback),
		bed:          NewBed(sr, cfg.DroneFreqs, cfg.Seed+29),
		tone:         dsp.NewStereoBiquad(dsp.Lowpass, sr, open, butterworthQ),
		bands:        NewMultiband(sr),
		flux:         NewFlux(sr),
		filterHz:     newAtomicFloat(open),
		reverbReturn: newAtomicFloat(DefaultReverbReturn),
		volume:       newAtomicFloat(DefaultVolume),
		filterS:      dsp.NewSmoother(sr, parameter.ParamSmoothing, open),
		returnS:      dsp.NewSmoother(sr, parameter.ParamSmoothing, DefaultReverbReturn),
		volumeS:      dsp.NewSmoother(ctrlRate, parameter.ParamSmoothing, DefaultVolume),
		dry:          make([][2]float64, graphChunk),
		rev:          make([][2]float64, graphChunk),
		del:          make([][2]float64, graphChunk),
		bedBuf:       make([][2]float64, graphChunk),
		peak:         newAtomicFloat(0),
	}
	g.master = &effects.Volume{Streamer: beep.StreamerFunc(g.streamPre), Base: 2}
	g.applyVolume(DefaultVolume)
	return g, nil
}

var ErrSampleRate = errors.New("invalid sample rate")

// SetFilter sets the global tone filter cutoff in Hz, clamped to [MinFilterHz, 0.45·sr]
func (g *Graph) SetFilter(hz float64) { g.filterHz.Store(dsp.ClampFreq(hz, g.sr)) }

// Filter returns the published tone cutoff
func (g *Graph) Filter() float64 { return g.filterHz.Load() }

// SetReverbReturn sets the wet reverb level in [0,1]
func (g *Graph) SetReverbReturn(v float64) { g.reverbReturn.Store(vmath.Clamp01(v)) }

// ReverbReturn returns the published reverb return
func (g *Graph) ReverbReturn() float64 { return g.reverbReturn.Load() }

// SetDelayFeedback sets delay feedback, clamped to DelayMaxFeedback
func (g *Graph) SetDelayFeedback(v float64) { g.delay.SetFeedback(v) }

// DelayFeedback returns the published delay feedback
func (g *Graph) DelayFeedback() float64 { return g.delay.Feedback() }

// SetTempo retimes the delay
func (g *Graph) SetTempo(bpm float64) { g.delay.SetTempo(bpm) }

// SetVolume sets master volume in [0,1]
func (g *Graph) SetVolume(v float64) { g.volume.Store(vmath.Clamp01(v)) }

// SetFlux publishes all flux controls as one update
func (g *Graph) SetFlux(p FluxParams) { g.flux.Set(p) }

// Flux returns the published flux controls
func (g *Graph) Flux() FluxParams { return g.flux.Params() }

// SetBed sets drone and noise bed levels
func (g *Graph) SetBed(drone, noise float64) { g.bed.SetLevels(drone, noise) }

// SetDroneFreqs retunes the bed drones
func (g *Graph) SetDroneFreqs(freqs [DroneVoices]float64) { g.bed.SetDroneFreqs(freqs) }

// SetTap installs a capture tap; nil removes it
func (g *Graph) SetTap(t Tap) {
	if t == nil {
		g.tap.Store(nil)
		return
	}
	g.tap.Store(&tapHolder{t: t})
}

// Peak returns the absolute peak of the last rendered chunk
func (g *Graph) Peak() float64 { return g.peak.Load() }

// Latency returns the reverb path delay in samples
func (g *Graph) Latency() int { return g.reverb.Latency() }

// Stream renders the final output; it never drains
func (g *Graph) Stream(samples [][2]float64) (int, bool) {
	for off := 0; off < len(samples); off += graphChunk {
		end := min(off+graphChunk, len(samples))
		g.renderChunk(samples[off:end])
	}
	return len(samples), true
}

func (g *Graph) Err() error { return nil }

// Render pulls n frames without a device
func (g *Graph) Render(n int) [][2]float64 {
	out := make([][2]float64, max(n, 0))
	g.Stream(out)
	return out
}

func (g *Graph) renderChunk(out [][2]float64) {
	g.volumeS.SetTarget(g.volume.Load())
	g.applyVolume(g.volumeS.Next())
	g.master.Stream(out)

	var peak float64
	for i := range out {
		out[i][0] = Limit(out[i][0])
		out[i][1] = Limit(out[i][1])
		peak = max(peak, math.Abs(out[i][0]), math.Abs(out[i][1]))
	}
	g.peak.Store(peak)

	if h := g.tap.Load(); h != nil {
		h.t.Capture(out)
	}
}

// applyVolume maps linear volume onto effects.Volume's exponent form
func (g *Graph) applyVolume(v float64) {
	if v <= 0.0001 {
		g.master.Silent = true
		g.master.Volume = 0
		return
	}
	g.master.Silent = false
	g.master.Volume = math.Log2(v)
}

// streamPre runs everything ahead of the master volume for at most one chunk
func (g *Graph) streamPre(samples [][2]float64) (int, bool) {
	n := len(samples)
	dry, rev, del, bed := g.dry[:n], g.rev[:n], g.del[:n], g.bedBuf[:n]
	if g.bus != nil {
		g.bus.Mix(dry, rev, del)
	} else {
		clear(dry)
		clear(rev)
		clear(del)
	}
	g.bed.Stream(bed)

	g.filterS.SetTarget(g.filterHz.Load())
	g.returnS.SetTarget(g.reverbReturn.Load())
	g.delay.sync()
	g.flux.sync()

	for i := range samples {
		if i%filterUpdateEvery == 0 && math.Abs(g.filterS.Value()-g.filterS.Target()) > 0.5 {
			g.tone.SetFreq(g.filterS.Value())
		}
		g.filterS.Next()
		ret := g.returnS.Next()

		rl, rr := g.reverb.Process(rev[i][0], rev[i][1])
		dl, dr := g.delay.Process(del[i][0], del[i][1])

		l := dry[i][0] + rl*ret + dl + bed[i][0]
		r := dry[i][1] + rr*ret + dr + bed[i][1]

		l, r = g.tone.Process(l, r)
		l, r = g.bands.Process(l, r)
		l = SoftClip(l, parameter.SaturationDrive)
		r = SoftClip(r, parameter.SaturationDrive)
		l, r = g.flux.Process(l, r)

		samples[i] = [2]float64{l, r}
	}
	return n, true
}
