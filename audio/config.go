package audio

import (
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/ricochet/parameter"
)

// Environment variables read by LoadAudioConfig
const (
	EnvAudioEnabled = "RICOCHET_AUDIO_ENABLED"
	EnvMasterVolume = "RICOCHET_MASTER_VOLUME"
	EnvSampleRate   = "RICOCHET_SAMPLE_RATE"
	EnvPolyphony    = "RICOCHET_POLYPHONY"
	EnvSampleDir    = "RICOCHET_SAMPLE_DIR"
	EnvBufferMs     = "RICOCHET_BUFFER_MS"
)

// AudioConfig holds device and engine settings
type AudioConfig struct {
	Enabled        bool
	MasterVolume   float64
	SampleRate     int
	Polyphony      int
	SampleDir      string
	BufferDuration time.Duration
}

// DefaultAudioConfig returns the built-in settings
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Enabled:        true,
		MasterVolume:   0.8,
		SampleRate:     parameter.AudioSampleRate,
		Polyphony:      parameter.MaxPolyphony,
		BufferDuration: parameter.AudioBufferDuration,
	}
}

// LoadAudioConfig loads audio configuration from environment variables
func LoadAudioConfig() *AudioConfig {
	cfg := DefaultAudioConfig()

	if enabled := os.Getenv(EnvAudioEnabled); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Master volume 0-100 converted to 0.0-1.0
	if volume := os.Getenv(EnvMasterVolume); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = float64(val) / 100.0
			if cfg.MasterVolume < 0 {
				cfg.MasterVolume = 0
			}
			if cfg.MasterVolume > 1 {
				cfg.MasterVolume = 1
			}
		}
	}

	if sampleRate := os.Getenv(EnvSampleRate); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val >= 8000 && val <= 192000 {
			cfg.SampleRate = val
		}
	}

	if poly := os.Getenv(EnvPolyphony); poly != "" {
		if val, err := strconv.Atoi(poly); err == nil && val > 0 && val <= 256 {
			cfg.Polyphony = val
		}
	}

	if dir := os.Getenv(EnvSampleDir); dir != "" {
		cfg.SampleDir = dir
	}

	if ms := os.Getenv(EnvBufferMs); ms != "" {
		if val, err := strconv.Atoi(ms); err == nil && val >= 5 && val <= 1000 {
			cfg.BufferDuration = time.Duration(val) * time.Millisecond
		}
	}

	return cfg
}
