package music

import (
	"fmt"
	"math"
	"strings"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Scale identifies an interval table
type Scale int

const (
	ScaleMajor Scale = iota
	ScaleMinor
	ScaleDorian
	ScalePhrygian
	ScaleLydian
	ScaleMixolydian
	ScaleLocrian
	ScaleHarmonicMinor
	ScalePentatonicMajor
	ScalePentatonicMinor
	ScaleChromatic
	ScaleHarmonics
	scaleCount
)

// intervals are semitone offsets within one octave
// ScaleHarmonics has no table; it uses integer multiples of the root
var intervals = [scaleCount][]int{
	ScaleMajor:           {0, 2, 4, 5, 7, 9, 11},
	ScaleMinor:           {0, 2, 3, 5, 7, 8, 10},
	ScaleDorian:          {0, 2, 3, 5, 7, 9, 10},
	ScalePhrygian:        {0, 1, 3, 5, 7, 8, 10},
	ScaleLydian:          {0, 2, 4, 6, 7, 9, 11},
	ScaleMixolydian:      {0, 2, 4, 5, 7, 9, 10},
	ScaleLocrian:         {0, 1, 3, 5, 6, 8, 10},
	ScaleHarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	ScalePentatonicMajor: {0, 2, 4, 7, 9},
	ScalePentatonicMinor: {0, 3, 5, 7, 10},
	ScaleChromatic:       {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var scaleNames = [scaleCount]string{
	"major", "minor", "dorian", "phrygian", "lydian", "mixolydian", "locrian",
	"harmonic-minor", "pentatonic-major", "pentatonic-minor", "chromatic", "harmonics",
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (s Scale) String() string {
	if s < 0 || s >= scaleCount {
		return "unknown"
	}
	return scaleNames[s]
}

// Valid reports whether s names a known scale
func (s Scale) Valid() bool { return s >= 0 && s < scaleCount }

// Len returns degrees per octave; harmonics has no octave period and reports 1
func (s Scale) Len() int {
	if !s.Valid() || s == ScaleHarmonics {
		return 1
	}
	return len(intervals[s])
}

// Scales returns every scale in display order
func Scales() []Scale {
	out := make([]Scale, scaleCount)
	for i := range out {
		out[i] = Scale(i)
	}
	return out
}

// ParseScale resolves a scale name, ok=false for unknown names
func ParseScale(name string) (Scale, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range scaleNames {
		if n == name {
			return Scale(i), true
		}
	}
	return ScaleMajor, false
}

func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scale) UnmarshalText(b []byte) error {
	v, ok := ParseScale(string(b))
	if !ok {
		return fmt.Errorf("unknown scale %q", b)
	}
	*s = v
	return nil
}

// NoteName returns the pitch class name of a root key
func NoteName(root int) string {
	_, pc := vmath.FloorDiv(root, 12)
	return noteNames[pc]
}

// MIDIFreq converts a fractional MIDI note to Hz against the tuning standard
func MIDIFreq(note float64) float64 {
	return parameter.TuningA4 * math.Exp2((note-69)/12)
}

// Mapper converts scale degrees to frequencies
// Drift draws from its own generator; not safe for concurrent use
type Mapper struct {
	rng *vmath.FastRand
}

// NewMapper creates a mapper seeded for drift
func NewMapper(seed uint64) *Mapper {
	return &Mapper{rng: vmath.NewFastRand(seed)}
}

// RootFrequency returns the frequency of the root key at the given octave
// Octave numbering follows MIDI: octave 4 root C is middle C
func RootFrequency(root, octave int) float64 {
	_, pc := vmath.FloorDiv(root, 12)
	return MIDIFreq(float64(12*(octave+1) + pc))
}

// Frequency resolves a scale degree without drift
// Degrees wrap into the scale carrying octave offset; negative degrees descend
func Frequency(root int, s Scale, octave, degree int) float64 {
	if !s.Valid() {
		s = ScaleMajor
	}
	if s == ScaleHarmonics {
		if degree < 0 {
			degree = 0
		}
		return RootFrequency(root, octave) * float64(degree+1)
	}
	table := intervals[s]
	octOffset, idx := vmath.FloorDiv(degree, len(table))
	_, pc := vmath.FloorDiv(root, 12)
	note := 12*(octave+1+octOffset) + pc + table[idx]
	return MIDIFreq(float64(note))
}

// Frequency resolves a scale degree and applies random drift in cents scaled by drift [0,1]
func (m *Mapper) Frequency(root int, s Scale, octave, degree int, drift float64) float64 {
	f := Frequency(root, s, octave, degree)
	drift = vmath.Clamp01(drift)
	if drift == 0 {
		return f
	}
	cents := m.rng.Bipolar() * drift * parameter.MaxDriftCents
	return f * math.Exp2(cents/1200)
}
