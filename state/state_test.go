package state

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/ricochet/music"
)

// TestStoreVersioning verifies updates publish sanitized snapshots with increasing versions
func TestStoreVersioning(t *testing.T) {
	s := NewStore(DefaultGlobal())
	v0 := s.Load().Version

	snap := s.Update(func(g *Global) {
		g.Tempo = 999
		g.RootKey = -1
		g.Scale = music.Scale(77)
	})
	if snap.Version != v0+1 {
		t.Errorf("Expected version %d, got %d", v0+1, snap.Version)
	}
	if snap.Tempo != 240 {
		t.Errorf("Expected tempo clamped to 240, got %f", snap.Tempo)
	}
	if snap.RootKey != 11 {
		t.Errorf("Expected root wrapped to 11, got %d", snap.RootKey)
	}
	if snap.Scale != music.ScaleMajor {
		t.Errorf("Expected invalid scale replaced, got %v", snap.Scale)
	}
	if got := s.Load(); got != snap {
		t.Error("Expected Load to return the published snapshot")
	}
}

// TestStoreConcurrentWriters verifies no update is lost under contention
func TestStoreConcurrentWriters(t *testing.T) {
	s := NewStore(DefaultGlobal())
	start := s.Load().Version
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Update(func(g *Global) { g.Drift = float64(i) / 100 })
				_ = s.Load()
			}
		}()
	}
	wg.Wait()
	if got := s.Load().Version; got != start+800 {
		t.Errorf("Expected version %d, got %d", start+800, got)
	}
}

// TestEffectiveTimeScale verifies stopped playback freezes time
func TestEffectiveTimeScale(t *testing.T) {
	g := DefaultGlobal()
	g.TimeScale = 1.5
	if g.EffectiveTimeScale() != 1.5 {
		t.Error("Expected time scale while playing")
	}
	g.Playing = false
	if g.EffectiveTimeScale() != 0 {
		t.Error("Expected zero time scale when stopped")
	}
}

// TestVisualStoreDefaultsAndStaleness verifies defaults when absent or stale
func TestVisualStoreDefaultsAndStaleness(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewVisualStore(time.Second)
	s.now = func() time.Time { return now }

	if v, live := s.Lookup(); live || v != DefaultVisual {
		t.Errorf("Expected defaults when absent, got %+v live=%v", v, live)
	}

	s.Set(Visual{Motion: 2, Brightness: -1, Hue: -30})
	v, live := s.Lookup()
	if !live {
		t.Fatal("Expected live reading")
	}
	if v.Motion != 1 || v.Brightness != 0 || v.Hue != 330 {
		t.Errorf("Expected clamped reading, got %+v", v)
	}

	now = now.Add(2 * time.Second)
	if v, live := s.Lookup(); live || v != DefaultVisual {
		t.Errorf("Expected stale reading to revert, got %+v", v)
	}

	s.Set(Visual{Motion: math.NaN(), Brightness: 0.3, Hue: 725})
	if v := s.Get(); v.Motion != DefaultVisual.Motion || v.Hue != 5 {
		t.Errorf("Unexpected reading %+v", v)
	}
}

// TestMacroPad verifies pad mapping and clamping
func TestMacroPad(t *testing.T) {
	tests := []struct {
		x, y       float64
		ts, filter float64
	}{
		{0, 0, 0, 0},
		{0.5, 0.25, 1, 0.25},
		{1, 1, 2, 1},
		{-1, 3, 0, 1},
	}
	for _, tt := range tests {
		ts, f := MacroPad(tt.x, tt.y)
		if ts != tt.ts || f != tt.filter {
			t.Errorf("MacroPad(%v,%v) = (%v,%v), want (%v,%v)", tt.x, tt.y, ts, f, tt.ts, tt.filter)
		}
	}

	s := NewStore(DefaultGlobal())
	snap := s.ApplyMacroPad(0, 0.5)
	if snap.TimeScale != 0 || snap.GlobalFilter != 0.5 {
		t.Errorf("Unexpected snapshot after pad: %+v", snap.Global)
	}
	if hz := GlobalFilterHz(1); math.Abs(hz-18000) > 1e-6 {
		t.Errorf("Expected open filter at 18 kHz, got %f", hz)
	}
}
