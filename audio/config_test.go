package audio

import (
	"testing"
	"time"
)

// TestDefaultAudioConfig verifies default configuration
func TestDefaultAudioConfig(t *testing.T) {
	cfg := DefaultAudioConfig()

	if cfg == nil {
		t.Fatal("Expected non-nil default config")
	}
	if !cfg.Enabled {
		t.Error("Expected default config to have Enabled=true")
	}
	if cfg.MasterVolume != 0.8 {
		t.Errorf("Expected default master volume 0.8, got %f", cfg.MasterVolume)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("Expected default sample rate 44100, got %d", cfg.SampleRate)
	}
	if cfg.Polyphony != 24 {
		t.Errorf("Expected default polyphony 24, got %d", cfg.Polyphony)
	}
}

// TestLoadAudioConfigDefaults verifies loading with no env vars
func TestLoadAudioConfigDefaults(t *testing.T) {
	for _, k := range []string{EnvAudioEnabled, EnvMasterVolume, EnvSampleRate, EnvPolyphony, EnvSampleDir, EnvBufferMs} {
		t.Setenv(k, "")
	}

	cfg := LoadAudioConfig()
	def := DefaultAudioConfig()
	if *cfg != *def {
		t.Errorf("Expected defaults %+v, got %+v", def, cfg)
	}
}

// TestLoadAudioConfigEnv verifies each variable is parsed and bounded
func TestLoadAudioConfigEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*AudioConfig) bool
	}{
		{"disable", EnvAudioEnabled, "false", func(c *AudioConfig) bool { return !c.Enabled }},
		{"invalid bool ignored", EnvAudioEnabled, "maybe", func(c *AudioConfig) bool { return c.Enabled }},
		{"volume", EnvMasterVolume, "25", func(c *AudioConfig) bool { return c.MasterVolume == 0.25 }},
		{"volume high clamped", EnvMasterVolume, "150", func(c *AudioConfig) bool { return c.MasterVolume == 1 }},
		{"volume low clamped", EnvMasterVolume, "-20", func(c *AudioConfig) bool { return c.MasterVolume == 0 }},
		{"sample rate", EnvSampleRate, "48000", func(c *AudioConfig) bool { return c.SampleRate == 48000 }},
		{"sample rate out of range", EnvSampleRate, "12", func(c *AudioConfig) bool { return c.SampleRate == 44100 }},
		{"polyphony", EnvPolyphony, "8", func(c *AudioConfig) bool { return c.Polyphony == 8 }},
		{"polyphony zero ignored", EnvPolyphony, "0", func(c *AudioConfig) bool { return c.Polyphony == 24 }},
		{"sample dir", EnvSampleDir, "/tmp/s", func(c *AudioConfig) bool { return c.SampleDir == "/tmp/s" }},
		{"buffer", EnvBufferMs, "20", func(c *AudioConfig) bool { return c.BufferDuration == 20*time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if cfg := LoadAudioConfig(); !tt.check(cfg) {
				t.Errorf("%s=%s: unexpected config %+v", tt.key, tt.value, cfg)
			}
		})
	}
}
