// Package preset persists whole-instrument snapshots to numbered TOML slot files
package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/state"
)

var (
	ErrSlot    = errors.New("preset slot out of range")
	ErrEmpty   = errors.New("preset slot empty")
	ErrVersion = errors.New("unsupported preset version")
)

// FormatVersion is written into every file; newer files are rejected
const FormatVersion = 1

// Snapshot is the persisted state of the whole instrument
type Snapshot struct {
	Version int          `toml:"version"`
	Saved   time.Time    `toml:"saved"`
	Global  state.Global `toml:"global"`
	Bank    patch.Bank   `toml:"bank"`
}

// Store maps slots 0..n-1 to files in one directory
type Store struct {
	dir   string
	slots int
}

// NewStore creates the directory if needed
func NewStore(dir string, slots int) (*Store, error) {
	if slots <= 0 {
		return nil, fmt.Errorf("%d slots: %w", slots, ErrSlot)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preset dir: %w", err)
	}
	return &Store{dir: dir, slots: slots}, nil
}

// Dir returns the preset directory
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(slot int) (string, error) {
	if slot < 0 || slot >= s.slots {
		return "", fmt.Errorf("slot %d: %w", slot, ErrSlot)
	}
	return filepath.Join(s.dir, fmt.Sprintf("slot%d.toml", slot)), nil
}

// Save writes snap to slot through a temp file and rename, so readers never see a partial file
func (s *Store) Save(slot int, snap Snapshot) error {
	path, err := s.path(slot)
	if err != nil {
		return err
	}
	snap.Version = FormatVersion
	if snap.Saved.IsZero() {
		snap.Saved = time.Now()
	}
	snap.Saved = snap.Saved.Round(0)

	tmp, err := os.CreateTemp(s.dir, ".slot-*.toml")
	if err != nil {
		return fmt.Errorf("create temp preset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode preset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync preset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit preset: %w", err)
	}
	return nil
}

// Load decodes a slot into a fresh snapshot with the global state sanitized
// Instrument configs are sanitized when applied to a rack
func (s *Store) Load(slot int) (Snapshot, error) {
	path, err := s.path(slot)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if _, err := toml.DecodeFile(path, &snap); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("slot %d: %w", slot, ErrEmpty)
		}
		return Snapshot{}, fmt.Errorf("decode preset %d: %w", slot, err)
	}
	if snap.Version > FormatVersion {
		return Snapshot{}, fmt.Errorf("slot %d version %d: %w", slot, snap.Version, ErrVersion)
	}
	snap.Global = snap.Global.Sanitize()
	return snap, nil
}

// Occupied returns the slots that hold a file, ascending
func (s *Store) Occupied() []int {
	var used []int
	for i := 0; i < s.slots; i++ {
		path, _ := s.path(i)
		if _, err := os.Stat(path); err == nil {
			used = append(used, i)
		}
	}
	return used
}

// Capture reads the live stores into a snapshot
func Capture(global *state.Store, rack *patch.Rack) Snapshot {
	return Snapshot{
		Version: FormatVersion,
		Global:  global.Load().Global,
		Bank:    rack.Bank(),
	}
}

// Apply swaps the rack bank and the global state, each as one atomic replacement
func Apply(snap Snapshot, global *state.Store, rack *patch.Rack) {
	rack.Load(snap.Bank)
	global.Replace(snap.Global)
}
