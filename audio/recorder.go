package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

var ErrNothingRecorded = errors.New("nothing recorded")

// Recorder captures the final mix while enabled; attach it with fx.Graph.SetTap
// Start and Stop are idempotent
type Recorder struct {
	format    beep.Format
	maxFrames int
	recording atomic.Bool

	mu     sync.Mutex
	frames [][2]float64
}

// NewRecorder creates a recorder bounded to maxDuration of audio
func NewRecorder(sampleRate float64, maxDuration time.Duration) *Recorder {
	sr := beep.SampleRate(sampleRate)
	return &Recorder{
		format:    beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2},
		maxFrames: sr.N(maxDuration),
	}
}

// Start begins a fresh take; returns false if already recording
func (r *Recorder) Start() bool {
	if !r.recording.CompareAndSwap(false, true) {
		return false
	}
	r.mu.Lock()
	r.frames = r.frames[:0]
	r.mu.Unlock()
	return true
}

// Stop ends the take; returns false if not recording
func (r *Recorder) Stop() bool {
	return r.recording.CompareAndSwap(true, false)
}

// Recording reports whether captures are being kept
func (r *Recorder) Recording() bool { return r.recording.Load() }

// Capture implements fx.Tap
func (r *Recorder) Capture(samples [][2]float64) {
	if !r.recording.Load() {
		return
	}
	r.mu.Lock()
	room := r.maxFrames - len(r.frames)
	if room > 0 {
		r.frames = append(r.frames, samples[:min(room, len(samples))]...)
	}
	full := room <= len(samples)
	r.mu.Unlock()
	if full {
		r.recording.Store(false)
	}
}

// Len returns the captured frame count
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Duration returns the captured length
func (r *Recorder) Duration() time.Duration {
	return r.format.SampleRate.D(r.Len())
}

// WriteWAV encodes the current take
func (r *Recorder) WriteWAV(w io.WriteSeeker) error {
	r.mu.Lock()
	frames := append([][2]float64(nil), r.frames...)
	r.mu.Unlock()
	if len(frames) == 0 {
		return ErrNothingRecorded
	}

	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy(samples, frames[pos:])
		pos += n
		return n, true
	})
	if err := wav.Encode(w, src, r.format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// SaveWAV writes the current take to path
func (r *Recorder) SaveWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	if err := r.WriteWAV(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
