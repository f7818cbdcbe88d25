package fx

import (
	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Delay is a tempo-synced stereo echo with band-limited feedback
// Tempo and feedback are read from atomics once per block and smoothed per sample
type Delay struct {
	sr       float64
	tempo    *atomicFloat
	feedback *atomicFloat

	time dsp.Smoother
	fb   dsp.Smoother

	lineL, lineR *dsp.DelayLine
	hp, lp       *dsp.StereoBiquad
}

// NewDelay creates a delay synced to bpm
func NewDelay(sampleRate, bpm, feedback float64) *Delay {
	size := int(parameter.DelayMaxTime.Seconds()*sampleRate) + 2
	bpm = music.ClampBPM(bpm)
	feedback = clampFeedback(feedback)
	d := &Delay{
		sr:       sampleRate,
		tempo:    newAtomicFloat(bpm),
		feedback: newAtomicFloat(feedback),
		time:     dsp.NewSmoother(sampleRate, parameter.ParamSmoothing, delaySamples(sampleRate, bpm)),
		fb:       dsp.NewSmoother(sampleRate, parameter.ParamSmoothing, feedback),
		lineL:    dsp.NewDelayLine(size),
		lineR:    dsp.NewDelayLine(size),
		hp:       dsp.NewStereoBiquad(dsp.Highpass, sampleRate, parameter.DelayFeedbackLowHz, butterworthQ),
		lp:       dsp.NewStereoBiquad(dsp.Lowpass, sampleRate, parameter.DelayFeedbackHighHz, butterworthQ),
	}
	return d
}

func clampFeedback(v float64) float64 {
	return vmath.Clamp(v, 0, parameter.DelayMaxFeedback)
}

// delaySamples converts DelayBeats at bpm into samples, bounded by the line length
func delaySamples(sr, bpm float64) float64 {
	sec := parameter.DelayBeats * 60 / bpm
	return vmath.Clamp(sec*sr, 1, parameter.DelayMaxTime.Seconds()*sr)
}

// SetTempo retimes the echo; out-of-range tempos are clamped
func (d *Delay) SetTempo(bpm float64) { d.tempo.Store(music.ClampBPM(bpm)) }

// SetFeedback sets the feedback amount, clamped to [0, DelayMaxFeedback]
func (d *Delay) SetFeedback(v float64) { d.feedback.Store(clampFeedback(v)) }

// Feedback returns the published feedback target
func (d *Delay) Feedback() float64 { return d.feedback.Load() }

func (d *Delay) sync() {
	d.time.SetTarget(delaySamples(d.sr, d.tempo.Load()))
	d.fb.SetTarget(d.feedback.Load())
}

// Process consumes one stereo send sample and returns the wet echo
func (d *Delay) Process(l, r float64) (float64, float64) {
	t := d.time.Next()
	fb := d.fb.Next()
	wl := d.lineL.Read(t)
	wr := d.lineR.Read(t)
	fl, fr := d.hp.Process(wl, wr)
	fl, fr = d.lp.Process(fl, fr)
	d.lineL.Write(l + fl*fb)
	d.lineR.Write(r + fr*fb)
	return wl, wr
}
