package fx

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// DroneVoices is the number of bed drone oscillators
const DroneVoices = 3

// Bed is the always-on drone and noise layer mixed under the voice bus
// Each layer is a never-draining streamer inside a beep.Mixer
type Bed struct {
	sr         float64
	mixer      *beep.Mixer
	droneLevel *atomicFloat
	noiseLevel *atomicFloat
	drones     [DroneVoices]*drone
}

type drone struct {
	sr    float64
	freq  *atomicFloat
	level *atomicFloat
	gain  dsp.Smoother
	pitch dsp.Smoother

	a, b  dsp.Oscillator
	lfo   float64
	rate  float64
	lp    *dsp.Biquad
	width float64
}

type noiseBed struct {
	level *atomicFloat
	gain  dsp.Smoother
	src   *dsp.Noise
	bpL   *dsp.Biquad
	bpR   *dsp.Biquad
}

// NewBed creates a silent bed; freqs seeds the drone pitches
func NewBed(sampleRate float64, freqs [DroneVoices]float64, seed uint64) *Bed {
	b := &Bed{
		sr:         sampleRate,
		mixer:      &beep.Mixer{},
		droneLevel: newAtomicFloat(0),
		noiseLevel: newAtomicFloat(0),
	}
	for i := range b.drones {
		f := dsp.ClampFreq(freqs[i], sampleRate)
		d := &drone{
			sr:    sampleRate,
			freq:  newAtomicFloat(f),
			level: b.droneLevel,
			gain:  dsp.NewSmoother(sampleRate, parameter.BedSmoothing, 0),
			pitch: dsp.NewSmoother(sampleRate, parameter.BedSmoothing, f),
			a:     dsp.NewOscillator(dsp.WaveSaw, f*(1-parameter.DroneDetune), sampleRate, seed+uint64(i)),
			b:     dsp.NewOscillator(dsp.WaveSaw, f*(1+parameter.DroneDetune), sampleRate, seed+uint64(i)+7),
			lfo:   float64(i) / DroneVoices,
			rate:  parameter.DroneLFORate * (1 + 0.37*float64(i)),
			lp:    dsp.NewBiquad(dsp.Lowpass, sampleRate, parameter.DroneCutoffHz, butterworthQ),
			width: float64(i-1) * 0.5,
		}
		b.drones[i] = d
		b.mixer.Add(d.streamer())
	}
	n := &noiseBed{
		level: b.noiseLevel,
		gain:  dsp.NewSmoother(sampleRate, parameter.BedSmoothing, 0),
		src:   dsp.NewNoise(seed + 101),
		bpL:   dsp.NewBiquad(dsp.Bandpass, sampleRate, parameter.NoiseBedHz, parameter.NoiseBedQ),
		bpR:   dsp.NewBiquad(dsp.Bandpass, sampleRate, parameter.NoiseBedHz*1.1, parameter.NoiseBedQ),
	}
	b.mixer.Add(n.streamer())
	return b
}

// SetLevels sets drone and noise levels in [0,1]
func (b *Bed) SetLevels(drone, noise float64) {
	b.droneLevel.Store(vmath.Clamp01(drone))
	b.noiseLevel.Store(vmath.Clamp01(noise))
}

// Levels returns the published drone and noise levels
func (b *Bed) Levels() (drone, noise float64) {
	return b.droneLevel.Load(), b.noiseLevel.Load()
}

// SetDroneFreqs retunes the drones; pitch glides over BedSmoothing
func (b *Bed) SetDroneFreqs(freqs [DroneVoices]float64) {
	for i, d := range b.drones {
		d.freq.Store(dsp.ClampFreq(freqs[i], b.sr))
	}
}

// Stream renders the bed into samples, overwriting them
func (b *Bed) Stream(samples [][2]float64) (int, bool) {
	return b.mixer.Stream(samples)
}

func (b *Bed) Err() error { return nil }

func (d *drone) streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		d.gain.SetTarget(d.level.Load() * parameter.MaxBedLevel / DroneVoices)
		d.pitch.SetTarget(d.freq.Load())
		for i := range samples {
			g := d.gain.Next()
			f := d.pitch.Next()

			d.lfo += d.rate / d.sr
			d.lfo -= math.Floor(d.lfo)
			wobble := math.Sin(vmath.TwoPi * d.lfo)

			d.a.SetFreq(f*(1-parameter.DroneDetune)*(1+0.002*wobble), d.sr)
			d.b.SetFreq(f*(1+parameter.DroneDetune)*(1-0.002*wobble), d.sr)
			v := d.lp.Process((d.a.Next()+d.b.Next())*0.5) * g * (0.75 + 0.25*wobble)

			pan := d.width * 0.5
			samples[i][0] = v * (1 - pan)
			samples[i][1] = v * (1 + pan)
		}
		return len(samples), true
	})
}

func (n *noiseBed) streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n.gain.SetTarget(n.level.Load() * parameter.MaxBedLevel)
		for i := range samples {
			g := n.gain.Next()
			samples[i][0] = n.bpL.Process(n.src.Pink()) * g
			samples[i][1] = n.bpR.Process(n.src.Pink()) * g
		}
		return len(samples), true
	})
}
