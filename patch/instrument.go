// Package patch defines per-entity instrument configuration and its sanitizer
package patch

import (
	"fmt"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/parameter"
)

// Source is the closed set of synthesis models
type Source uint8

const (
	SourceSynth Source = iota
	SourceSample
	SourceGranular
	// SourcePhysical is reserved and produces no sound
	SourcePhysical
	sourceCount
)

var sourceNames = [sourceCount]string{"synth", "sample", "granular", "physical"}

func (s Source) String() string {
	if s < sourceCount {
		return sourceNames[s]
	}
	return "unknown"
}

func (s Source) Valid() bool { return s < sourceCount }

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(b []byte) error {
	for i, n := range sourceNames {
		if n == string(b) {
			*s = Source(i)
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", b)
}

// DrumKind selects the two-parameter percussion model, DrumNone for pitched voices
type DrumKind uint8

const (
	DrumNone DrumKind = iota
	DrumKick
	DrumGlitch
	DrumClick
	drumCount
)

var drumNames = [drumCount]string{"", "kick", "glitch", "click"}

func (d DrumKind) String() string {
	if d < drumCount {
		return drumNames[d]
	}
	return "unknown"
}

func (d DrumKind) Valid() bool { return d < drumCount }

func (d DrumKind) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DrumKind) UnmarshalText(b []byte) error {
	for i, n := range drumNames {
		if n == string(b) {
			*d = DrumKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown drum kind %q", b)
}

// Euclid is the hits/steps pair for flock rhythm gating
type Euclid struct {
	Hits  int `toml:"hits"`
	Steps int `toml:"steps"`
}

// InstrumentConfig is the sound definition voiced by one simulation entity
// Values are replaced wholesale; never mutate a config shared through a Rack
type InstrumentConfig struct {
	Source   Source       `toml:"source"`
	Waveform dsp.Waveform `toml:"waveform"`
	Octave   int          `toml:"octave"`

	// Macros, each [0,1]
	Timbre float64 `toml:"timbre"`
	Time   float64 `toml:"time"`
	Color  float64 `toml:"color"`
	Drive  float64 `toml:"drive"`

	Probability float64 `toml:"probability"`

	// Envelope in seconds
	Attack  float64 `toml:"attack"`
	Decay   float64 `toml:"decay"`
	Release float64 `toml:"release"`

	FilterType dsp.FilterKind `toml:"filter_type"`
	FilterFreq float64        `toml:"filter_freq"`
	FilterQ    float64        `toml:"filter_q"`

	Pan        float64 `toml:"pan"`
	LoFi       float64 `toml:"lofi"`
	SpatialPan bool    `toml:"spatial_pan"`

	Drum     DrumKind `toml:"drum"`
	SampleID string   `toml:"sample_id"`
	Tension  float64  `toml:"tension"`
	Euclid   Euclid   `toml:"euclid"`
}

// BuiltinSamples are the procedurally generated bank entries
var BuiltinSamples = []string{"glass", "wood", "air"}

// Default returns the known-safe patch substituted for invalid configurations
func Default() InstrumentConfig {
	return InstrumentConfig{
		Source:      SourceSynth,
		Waveform:    dsp.WaveSine,
		Octave:      4,
		Timbre:      0.3,
		Time:        0.4,
		Color:       0.6,
		Drive:       0.1,
		Probability: 1,
		Attack:      0.005,
		Decay:       0.25,
		Release:     0.4,
		FilterType:  dsp.Lowpass,
		FilterFreq:  2000,
		FilterQ:     0.8,
		SpatialPan:  true,
		SampleID:    BuiltinSamples[0],
		Tension:     0.5,
		Euclid:      Euclid{Hits: parameter.DefaultEuclidHits, Steps: parameter.DefaultEuclidSteps},
	}
}

// DefaultFlock returns the percussive patch for flock events
func DefaultFlock() InstrumentConfig {
	c := Default()
	c.Drum = DrumGlitch
	c.Probability = 0.8
	c.Time = 0.3
	c.Color = 0.7
	c.Decay = 0.08
	c.Release = 0.05
	return c
}

// Preset returns a varied starting patch for body slot i
func Preset(i int) InstrumentConfig {
	c := Default()
	switch i % 4 {
	case 1:
		c.Waveform = dsp.WaveTriangle
		c.Octave = 3
		c.Color = 0.45
		c.Time = 0.6
	case 2:
		c.Source = SourceSample
		c.SampleID = "wood"
		c.Octave = 4
		c.Time = 0.3
	case 3:
		c.Waveform = dsp.WaveSaw
		c.Octave = 5
		c.Timbre = 0.6
		c.FilterType = dsp.Bandpass
		c.Probability = 0.7
	}
	return c
}
