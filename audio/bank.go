package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/ricochet/dsp"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/vmath"
)

var (
	ErrEmptySample = errors.New("sample has no frames")
	ErrSampleID    = errors.New("invalid sample id")
)

// resampleQuality is the beep resampler quality for loading and playback
const resampleQuality = 4

// Sample is one bank entry
type Sample struct {
	ID       string
	Buffer   *beep.Buffer
	Mono     []float64
	BaseFreq float64 // pitch played at ratio 1
}

// Bank holds playable samples keyed by id; safe for concurrent use
type Bank struct {
	mu      sync.RWMutex
	format  beep.Format
	samples map[string]*Sample
}

// NewBank creates a bank populated with the procedural built-ins
func NewBank(sampleRate float64, seed uint64) *Bank {
	b := &Bank{
		format:  beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: 3},
		samples: make(map[string]*Sample),
	}
	rng := vmath.NewFastRand(seed)
	sr := sampleRate
	b.add("glass", generateGlass(sr), music.MIDIFreq(72))
	b.add("wood", generateWood(sr, rng), music.MIDIFreq(60))
	b.add("air", generateAir(sr, rng), music.MIDIFreq(60))
	return b
}

// Has implements patch.Catalog
func (b *Bank) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.samples[id]
	return ok
}

// Get returns a sample by id
func (b *Bank) Get(id string) (*Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.samples[id]
	return s, ok
}

// IDs returns the sorted sample ids
func (b *Bank) IDs() []string {
	b.mu.RLock()
	ids := make([]string, 0, len(b.samples))
	for id := range b.samples {
		ids = append(ids, id)
	}
	b.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

var _ patch.Catalog = (*Bank)(nil)

func (b *Bank) add(id string, mono floatBuffer, base float64) {
	buf := beep.NewBuffer(b.format)
	buf.Append(bufferStreamer(mono, 1))
	b.mu.Lock()
	b.samples[id] = &Sample{ID: id, Buffer: buf, Mono: mono, BaseFreq: base}
	b.mu.Unlock()
}

// LoadWAV decodes a WAV file into the bank under id, resampling to the bank rate
// WAV samples are assumed to be pitched at middle C
func (b *Bank) LoadWAV(id, path string) error {
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%q: %w", id, ErrSampleID)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sample: %w", err)
	}
	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if format.SampleRate != b.format.SampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, b.format.SampleRate, stream)
	}

	buf := beep.NewBuffer(b.format)
	buf.Append(src)
	if buf.Len() == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptySample)
	}

	mono := make(floatBuffer, buf.Len())
	tmp := make([][2]float64, 512)
	s := buf.Streamer(0, buf.Len())
	pos := 0
	for {
		n, ok := s.Stream(tmp)
		for i := 0; i < n; i++ {
			mono[pos+i] = (tmp[i][0] + tmp[i][1]) / 2
		}
		pos += n
		if !ok || n == 0 {
			break
		}
	}

	b.mu.Lock()
	b.samples[id] = &Sample{ID: id, Buffer: buf, Mono: mono, BaseFreq: music.MIDIFreq(60)}
	b.mu.Unlock()
	return nil
}

// LoadDir loads every .wav file in dir, keyed by file name without extension
// Returns the number loaded and the first error encountered
func (b *Bank) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read sample dir: %w", err)
	}
	var firstErr error
	loaded := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		id := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if err := b.LoadWAV(id, filepath.Join(dir, name)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded++
	}
	return loaded, firstErr
}

// --- Procedural built-ins (unity peak) ---

// generateGlass is a bright inharmonic bell
func generateGlass(sr float64) floatBuffer {
	n := int(sr * 1.2)
	buf := make(floatBuffer, n)
	base := music.MIDIFreq(72)
	partials := []struct{ ratio, amp, decay float64 }{
		{1, 1, 3},
		{2.76, 0.5, 5},
		{5.40, 0.25, 8},
		{8.93, 0.12, 12},
	}
	for i := range buf {
		t := float64(i) / sr
		var v float64
		for _, p := range partials {
			v += math.Sin(vmath.TwoPi*base*p.ratio*t) * p.amp * math.Exp(-p.decay*t)
		}
		buf[i] = v
	}
	fadeEdges(buf, sr)
	normalizePeak(buf, 1)
	return buf
}

// generateWood is a short damped knock
func generateWood(sr float64, rng *vmath.FastRand) floatBuffer {
	n := int(sr * 0.35)
	buf := make(floatBuffer, n)
	base := music.MIDIFreq(60)
	for i := range buf {
		t := float64(i) / sr
		tone := math.Sin(vmath.TwoPi*base*t)*math.Exp(-18*t) +
			0.4*math.Sin(vmath.TwoPi*base*3.1*t)*math.Exp(-30*t)
		buf[i] = tone + rng.Bipolar()*0.3*math.Exp(-120*t)
	}
	fadeEdges(buf, sr)
	normalizePeak(buf, 1)
	return buf
}

// generateAir is a breathy filtered noise swell
func generateAir(sr float64, rng *vmath.FastRand) floatBuffer {
	n := int(sr * 0.9)
	buf := make(floatBuffer, n)
	for i := range buf {
		t := float64(i) / float64(n)
		buf[i] = rng.Bipolar() * math.Sin(math.Pi*t)
	}
	filterBuffer(buf, dsp.Bandpass, sr, music.MIDIFreq(60)*4, 6)
	fadeEdges(buf, sr)
	normalizePeak(buf, 1)
	return buf
}

// fadeEdges applies 2 ms linear ramps so loops and grains start and end at zero
func fadeEdges(buf floatBuffer, sr float64) {
	n := min(int(sr*0.002), len(buf)/2)
	for i := 0; i < n; i++ {
		g := float64(i) / float64(n)
		buf[i] *= g
		buf[len(buf)-1-i] *= g
	}
}
