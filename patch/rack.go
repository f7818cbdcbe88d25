package patch

import (
	"sync/atomic"

	"github.com/lixenwraith/ricochet/parameter"
)

// FlockSlot addresses the flock instrument in slot-indexed calls
const FlockSlot = -1

// Bank is an immutable set of instrument configs
type Bank struct {
	Bodies []InstrumentConfig `toml:"bodies"`
	Flock  InstrumentConfig   `toml:"flock"`
}

// Rack publishes instrument banks by atomic pointer swap
// Readers never observe a partially replaced bank
type Rack struct {
	bank    atomic.Pointer[Bank]
	catalog Catalog
}

// NewRack creates a rack with n varied body presets and the default flock patch
func NewRack(n int, cat Catalog) *Rack {
	if n <= 0 {
		n = parameter.DefaultRackSize
	}
	if cat == nil {
		cat = Builtin
	}
	r := &Rack{catalog: cat}
	b := &Bank{Bodies: make([]InstrumentConfig, n), Flock: DefaultFlock()}
	for i := range b.Bodies {
		b.Bodies[i] = Sanitize(Preset(i), cat)
	}
	r.bank.Store(b)
	return r
}

// Catalog returns the sample catalog used for sanitizing
func (r *Rack) Catalog() Catalog { return r.catalog }

// Len returns the number of body slots
func (r *Rack) Len() int { return len(r.bank.Load().Bodies) }

// Get returns the config for a slot; body slots wrap modulo Len
func (r *Rack) Get(slot int) InstrumentConfig {
	b := r.bank.Load()
	if slot == FlockSlot {
		return b.Flock
	}
	if len(b.Bodies) == 0 || slot < 0 {
		return Default()
	}
	return b.Bodies[slot%len(b.Bodies)]
}

// Bank returns a deep copy of the current bank
func (r *Rack) Bank() Bank {
	b := r.bank.Load()
	return Bank{Bodies: append([]InstrumentConfig(nil), b.Bodies...), Flock: b.Flock}
}

// Replace sanitizes and stores cfg in slot, returning the stored value
func (r *Rack) Replace(slot int, cfg InstrumentConfig) InstrumentConfig {
	return r.Patch(slot, func(c *InstrumentConfig) { *c = cfg })
}

// Patch applies fn to a copy of the slot config, sanitizes, and swaps it in
// Body slots beyond Len are ignored and return Default
func (r *Rack) Patch(slot int, fn func(*InstrumentConfig)) InstrumentConfig {
	for {
		old := r.bank.Load()
		next := &Bank{Bodies: append([]InstrumentConfig(nil), old.Bodies...), Flock: old.Flock}

		var target *InstrumentConfig
		switch {
		case slot == FlockSlot:
			target = &next.Flock
		case slot >= 0 && slot < len(next.Bodies):
			target = &next.Bodies[slot]
		default:
			return Default()
		}
		fn(target)
		*target = Sanitize(*target, r.catalog)

		if r.bank.CompareAndSwap(old, next) {
			return *target
		}
	}
}

// Load atomically replaces the whole bank after sanitizing every entry
func (r *Rack) Load(b Bank) {
	next := &Bank{Bodies: make([]InstrumentConfig, len(b.Bodies)), Flock: Sanitize(b.Flock, r.catalog)}
	for i, c := range b.Bodies {
		next.Bodies[i] = Sanitize(c, r.catalog)
	}
	if len(next.Bodies) == 0 {
		next.Bodies = []InstrumentConfig{Default()}
	}
	r.bank.Store(next)
}

// Resize grows or shrinks body slots, filling new ones with presets
func (r *Rack) Resize(n int) {
	if n <= 0 {
		n = 1
	}
	for {
		old := r.bank.Load()
		if len(old.Bodies) == n {
			return
		}
		next := &Bank{Bodies: make([]InstrumentConfig, n), Flock: old.Flock}
		copy(next.Bodies, old.Bodies)
		for i := len(old.Bodies); i < n; i++ {
			next.Bodies[i] = Sanitize(Preset(i), r.catalog)
		}
		if r.bank.CompareAndSwap(old, next) {
			return
		}
	}
}
