package music

import (
	"sync"

	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// TapTempo estimates BPM from tap timestamps in milliseconds
type TapTempo struct {
	mu   sync.Mutex
	taps []float64
	bpm  float64
}

// NewTapTempo creates an estimator starting at bpm
func NewTapTempo(bpm float64) *TapTempo {
	return &TapTempo{
		taps: make([]float64, 0, parameter.TapHistory),
		bpm:  vmath.Clamp(bpm, parameter.MinBPM, parameter.MaxBPM),
	}
}

// Tap records a timestamp and returns the current estimate
// changed is false when the history holds a single tap (after start or a reset gap)
func (t *TapTempo) Tap(ms float64) (bpm float64, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	gap := float64(parameter.TapResetGap.Milliseconds())
	if n := len(t.taps); n > 0 && (ms-t.taps[n-1] > gap || ms < t.taps[n-1]) {
		t.taps = t.taps[:0]
	}

	if len(t.taps) == parameter.TapHistory {
		copy(t.taps, t.taps[1:])
		t.taps = t.taps[:parameter.TapHistory-1]
	}
	t.taps = append(t.taps, ms)

	if len(t.taps) < 2 {
		return t.bpm, false
	}

	mean := (t.taps[len(t.taps)-1] - t.taps[0]) / float64(len(t.taps)-1)
	if mean <= 0 {
		return t.bpm, false
	}
	t.bpm = vmath.Clamp(60000/mean, parameter.MinBPM, parameter.MaxBPM)
	return t.bpm, true
}

// BPM returns the latest estimate
func (t *TapTempo) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

// Reset clears tap history, keeping the estimate
func (t *TapTempo) Reset() {
	t.mu.Lock()
	t.taps = t.taps[:0]
	t.mu.Unlock()
}

// ClampBPM limits a tempo to the playable range; non-finite values become DefaultBPM
func ClampBPM(bpm float64) float64 {
	return vmath.Clamp(vmath.Finite(bpm, parameter.DefaultBPM), parameter.MinBPM, parameter.MaxBPM)
}
