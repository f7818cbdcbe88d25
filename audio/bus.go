package audio

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ricochet/dsp"
)

// headroomSmoothing glides the 1/√n bus gain as density changes
const headroomSmoothing = 30 * time.Millisecond

// Bus is the voice summing stage feeding the effects graph
// Voices are handed over through a queue; only the audio goroutine touches active
type Bus struct {
	queue   chan *voice
	live    atomic.Int32
	ceiling int32

	active   []*voice
	scratch  [][2]float64
	headroom dsp.Smoother

	completed atomic.Uint64
}

func newBus(sampleRate float64, ceiling int) *Bus {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Bus{
		queue:    make(chan *voice, ceiling),
		ceiling:  int32(ceiling),
		active:   make([]*voice, 0, ceiling),
		headroom: dsp.NewSmoother(sampleRate, headroomSmoothing, 1),
	}
}

// acquire reserves a polyphony slot, false when the ceiling is reached
func (b *Bus) acquire() bool {
	for {
		n := b.live.Load()
		if n >= b.ceiling {
			return false
		}
		if b.live.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (b *Bus) release() {
	b.live.Add(-1)
}

// submit hands a voice to the audio goroutine; the caller holds a slot
func (b *Bus) submit(v *voice) bool {
	select {
	case b.queue <- v:
		return true
	default:
		b.release()
		return false
	}
}

// Live returns sounding plus queued voices
func (b *Bus) Live() int { return int(b.live.Load()) }

// Ceiling returns the polyphony limit
func (b *Bus) Ceiling() int { return int(b.ceiling) }

// Completed returns voices that have drained since start
func (b *Bus) Completed() uint64 { return b.completed.Load() }

// Mix renders all voices into the dry bus and their sends
func (b *Bus) Mix(dry, reverbSend, delaySend [][2]float64) {
	clear(dry)
	clear(reverbSend)
	clear(delaySend)
	b.drainQueue()

	n := len(dry)
	if cap(b.scratch) < n {
		b.scratch = make([][2]float64, n)
	}
	buf := b.scratch[:n]

	b.headroom.SetTarget(1 / math.Sqrt(float64(max(len(b.active), 1))))
	start := b.headroom.Value()
	for range n {
		b.headroom.Next()
	}
	end := b.headroom.Value()

	remaining := b.active[:0]
	for _, v := range b.active {
		got, ok := v.stream.Stream(buf)
		for i := 0; i < got; i++ {
			h := start + (end-start)*float64(i)/float64(n)
			l := buf[i][0] * v.gain * h
			r := buf[i][1] * v.gain * h
			if l != l || r != r {
				continue
			}
			dry[i][0] += l
			dry[i][1] += r
			reverbSend[i][0] += l * v.reverb
			reverbSend[i][1] += r * v.reverb
			delaySend[i][0] += l * v.delay
			delaySend[i][1] += r * v.delay
		}
		if ok && got == n {
			remaining = append(remaining, v)
			continue
		}
		b.release()
		b.completed.Add(1)
	}
	clear(b.active[len(remaining):])
	b.active = remaining
}

func (b *Bus) drainQueue() {
	for {
		select {
		case v := <-b.queue:
			b.active = append(b.active, v)
		default:
			return
		}
	}
}

// Drain discards every voice and releases its slot; used on shutdown
func (b *Bus) Drain() {
	b.drainQueue()
	for range b.active {
		b.release()
	}
	clear(b.active)
	b.active = b.active[:0]
}
