package patch

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// Catalog reports which sample identifiers can be voiced
type Catalog interface {
	Has(id string) bool
}

type builtinCatalog struct{}

func (builtinCatalog) Has(id string) bool {
	for _, s := range BuiltinSamples {
		if s == id {
			return true
		}
	}
	return false
}

// Builtin is the catalog of procedurally generated samples only
var Builtin Catalog = builtinCatalog{}

// Valid reports whether cfg can be voiced without substitution
func Valid(cfg InstrumentConfig, cat Catalog) bool {
	if cat == nil {
		cat = Builtin
	}
	if !cfg.Source.Valid() {
		return false
	}
	if cfg.Tension != cfg.Tension || cfg.Tension > parameter.MaxTension {
		return false
	}
	if (cfg.Source == SourceSample || cfg.Source == SourceGranular) && !cat.Has(cfg.SampleID) {
		return false
	}
	return true
}

// Sanitize returns a voiceable config; idempotent
// Invalid configs become Default keeping only Probability and Pan; every numeric field is clamped
func Sanitize(cfg InstrumentConfig, cat Catalog) InstrumentConfig {
	if !Valid(cfg, cat) {
		d := Default()
		d.Probability = cfg.Probability
		d.Pan = cfg.Pan
		cfg = d
	}

	cfg.Timbre = vmath.Clamp01(cfg.Timbre)
	cfg.Time = vmath.Clamp01(cfg.Time)
	cfg.Color = vmath.Clamp01(cfg.Color)
	cfg.Drive = vmath.Clamp01(cfg.Drive)
	cfg.Probability = vmath.Clamp01(cfg.Probability)
	cfg.LoFi = vmath.Clamp01(cfg.LoFi)
	cfg.Pan = vmath.Clamp(cfg.Pan, -1, 1)
	cfg.Tension = vmath.Clamp(cfg.Tension, 0, parameter.MaxTension)

	cfg.Octave = vmath.ClampInt(cfg.Octave, 0, parameter.MaxOctave)
	cfg.Attack = vmath.Clamp(cfg.Attack, parameter.MinEnvelope, parameter.MaxAttack)
	cfg.Decay = vmath.Clamp(cfg.Decay, parameter.MinEnvelope, parameter.MaxDecay)
	cfg.Release = vmath.Clamp(cfg.Release, parameter.MinEnvelope, parameter.MaxRelease)

	cfg.FilterFreq = vmath.Clamp(cfg.FilterFreq, parameter.FilterMinHz, parameter.FilterMaxHz)
	cfg.FilterQ = vmath.Clamp(cfg.FilterQ, parameter.MinFilterQ, parameter.MaxFilterQ)

	if cfg.Waveform.String() == "unknown" {
		cfg.Waveform = Default().Waveform
	}
	if cfg.FilterType.String() == "unknown" {
		cfg.FilterType = Default().FilterType
	}
	if !cfg.Drum.Valid() {
		cfg.Drum = DrumNone
	}

	cfg.Euclid.Steps = vmath.ClampInt(cfg.Euclid.Steps, 1, parameter.MaxEuclidSteps)
	cfg.Euclid.Hits = vmath.ClampInt(cfg.Euclid.Hits, 0, cfg.Euclid.Steps)
	return cfg
}
