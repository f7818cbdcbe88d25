package audio

import (
	"errors"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

var ErrAlreadyRunning = errors.New("audio output already running")

// Output drives a streamer on the speaker, or on a real-time null sink when no device is available
// Handles graceful degradation: device failures switch to silent mode, never to an error
type Output struct {
	cfg    *AudioConfig
	source beep.Streamer
	ctrl   *beep.Ctrl

	running atomic.Bool
	muted   atomic.Bool
	silent  atomic.Bool
	device  bool

	stopChan chan struct{}
	wg       sync.WaitGroup
	frames   atomic.Uint64
}

// NewOutput creates an output for source; cfg nil uses defaults
func NewOutput(cfg *AudioConfig, source beep.Streamer) *Output {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	o := &Output{cfg: cfg, source: source}
	o.ctrl = &beep.Ctrl{Streamer: beep.StreamerFunc(o.stream)}
	return o
}

// Name implements Service
func (o *Output) Name() string { return "audio" }

// Dependencies implements Service
func (o *Output) Dependencies() []string { return nil }

// Init implements Service
// args[0]: bool - initial mute state
func (o *Output) Init(args ...any) error {
	if len(args) > 0 {
		if muted, ok := args[0].(bool); ok {
			o.muted.Store(muted)
		}
	}
	return nil
}

// Start implements Service
// Falls back to the null sink when disabled or when the device cannot open
func (o *Output) Start() error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	o.stopChan = make(chan struct{})

	sr := beep.SampleRate(o.cfg.SampleRate)
	if o.cfg.Enabled {
		err := speaker.Init(sr, sr.N(o.cfg.BufferDuration))
		if err == nil {
			o.device = true
			speaker.Play(o.ctrl)
			return nil
		}
		log.Printf("audio device unavailable: %v (continuing silent)", err)
	}

	o.silent.Store(true)
	o.wg.Add(1)
	go o.nullSink(sr)
	return nil
}

// Stop implements Service; idempotent
func (o *Output) Stop() error {
	if !o.running.CompareAndSwap(true, false) {
		return nil
	}
	if o.device {
		speaker.Lock()
		o.ctrl.Paused = true
		speaker.Unlock()
		speaker.Clear()
	}
	close(o.stopChan)
	o.wg.Wait()
	return nil
}

// stream pulls the source and mutes after pulling so voices keep draining
func (o *Output) stream(samples [][2]float64) (int, bool) {
	n, _ := o.source.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	if o.muted.Load() {
		clear(samples)
	}
	o.frames.Add(uint64(len(samples)))
	return len(samples), true
}

// nullSink consumes the source at real time when there is no device
func (o *Output) nullSink(sr beep.SampleRate) {
	defer o.wg.Done()

	period := o.cfg.BufferDuration
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([][2]float64, sr.N(period))
	last := time.Now()
	var owed float64
	for {
		select {
		case <-o.stopChan:
			return
		case now := <-ticker.C:
			// Pull what elapsed, bounded to one second after a stall
			owed += math.Min(now.Sub(last).Seconds(), 1) * float64(sr)
			last = now
			for owed >= 1 {
				n := min(int(owed), len(buf))
				o.stream(buf[:n])
				owed -= float64(n)
			}
		}
	}
}

// ToggleMute toggles mute state, returns true if now audible
func (o *Output) ToggleMute() bool {
	muted := !o.muted.Load()
	o.muted.Store(muted)
	return !muted
}

// IsMuted returns current mute state
func (o *Output) IsMuted() bool { return o.muted.Load() }

// IsSilent returns true when running without a device
func (o *Output) IsSilent() bool { return o.silent.Load() }

// IsRunning returns true if started (even in silent mode)
func (o *Output) IsRunning() bool { return o.running.Load() }

// Frames returns the number of frames pulled from the source
func (o *Output) Frames() uint64 { return o.frames.Load() }
