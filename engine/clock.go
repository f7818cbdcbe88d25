package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ricochet/core"
)

var ErrSchedulerRunning = errors.New("scheduler already running")

// ClockScheduler calls a tick function on a fixed interval with drift-corrected deadlines
// Runs as a service; a paused scheduler sleeps without ticking
type ClockScheduler struct {
	name     string
	deps     []string
	interval time.Duration
	tick     func()

	tickCount atomic.Uint64
	paused    atomic.Bool

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewClockScheduler creates a stopped scheduler; deps are service names started first
func NewClockScheduler(name string, interval time.Duration, tick func(), deps ...string) *ClockScheduler {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &ClockScheduler{name: name, deps: deps, interval: interval, tick: tick}
}

// Name implements service.Service
func (cs *ClockScheduler) Name() string { return cs.name }

// Dependencies implements service.Service
func (cs *ClockScheduler) Dependencies() []string { return cs.deps }

// Init implements service.Service
// args[0]: bool - start paused
func (cs *ClockScheduler) Init(args ...any) error {
	if len(args) > 0 {
		if paused, ok := args[0].(bool); ok {
			cs.paused.Store(paused)
		}
	}
	return nil
}

// Start implements service.Service
func (cs *ClockScheduler) Start() error {
	if !cs.running.CompareAndSwap(false, true) {
		return ErrSchedulerRunning
	}
	cs.stopChan = make(chan struct{})
	cs.wg.Add(1)
	core.Go(cs.loop)
	return nil
}

// Stop implements service.Service; idempotent, and Start may follow
func (cs *ClockScheduler) Stop() error {
	if !cs.running.CompareAndSwap(true, false) {
		return nil
	}
	close(cs.stopChan)
	cs.wg.Wait()
	return nil
}

// Pause suspends ticking without stopping the goroutine
func (cs *ClockScheduler) Pause() { cs.paused.Store(true) }

// Resume continues ticking
func (cs *ClockScheduler) Resume() { cs.paused.Store(false) }

// IsPaused returns the pause state
func (cs *ClockScheduler) IsPaused() bool { return cs.paused.Load() }

// IsRunning returns true between Start and Stop
func (cs *ClockScheduler) IsRunning() bool { return cs.running.Load() }

// Ticks returns the number of completed ticks
func (cs *ClockScheduler) Ticks() uint64 { return cs.tickCount.Load() }

// loop runs ticks against absolute deadlines so sleep jitter does not accumulate
func (cs *ClockScheduler) loop() {
	defer cs.wg.Done()

	stop := cs.stopChan
	deadline := time.Now().Add(cs.interval)

	timer := time.NewTimer(cs.interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		var sleep time.Duration
		if cs.paused.Load() {
			sleep = cs.interval * 2
			deadline = time.Now().Add(cs.interval)
		} else {
			now := time.Now()
			if !now.Before(deadline) {
				cs.tick()
				cs.tickCount.Add(1)

				deadline = deadline.Add(cs.interval)
				// Too far behind: skip missed ticks instead of bursting
				if now.Sub(deadline) > cs.interval*2 {
					deadline = now.Add(cs.interval)
				}
			}
			sleep = time.Until(deadline)
		}

		if sleep > 0 {
			timer.Reset(sleep)
			select {
			case <-timer.C:
			case <-stop:
				return
			}
		}
	}
}
