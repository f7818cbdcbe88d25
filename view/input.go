package view

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/ricochet/engine"
	"github.com/lixenwraith/ricochet/fx"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/preset"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/vmath"
)

const helpLine = " space play  t tap  s/S scale  r/R root  c chaos  f flock  b shape  +/- bodies  [/] sides  1-5 flux  0 reset  d drone  z noise  v energy  m mute  o rec  ,/. slot  w save  e load  p pad  x respawn  q quit"

// messageTTL is how long a footer message stays up
const messageTTL = 3 * time.Second

// Manual visual energy levels cycled by 'v'; the first entry hands control back to the analyzer
var energyLevels = []float64{-1, 0.15, 0.5, 0.85}

// Recorder is the capture collaborator driven from the keyboard
type Recorder interface {
	Start() bool
	Stop() bool
	Recording() bool
	SaveWAV(path string) error
}

// Muter toggles the audio output
type Muter interface {
	ToggleMute() bool
	IsMuted() bool
}

// Controls are the collaborators a Controller drives; nil optional fields disable their keys
type Controls struct {
	Global     *state.Store
	Visual     *state.VisualStore
	Rack       *patch.Rack
	Instrument *engine.Instrument // pointer force, respawn
	Tap        *music.TapTempo
	Presets    *preset.Store
	Recorder   Recorder
	Output     Muter
	RecordDir  string
	Renderer   *Renderer // mouse mapping
	Now        func() time.Time
}

type mouseMode uint8

const (
	mousePointer mouseMode = iota
	mousePad
)

// Controller maps terminal events to control-layer writes
// Used from the UI goroutine only
type Controller struct {
	c Controls

	slot   int
	mouse  mouseMode
	energy int // index into energyLevels

	message   string
	messageAt time.Time
}

// NewController creates a controller; Global is required
func NewController(c Controls) *Controller {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Tap == nil {
		c.Tap = music.NewTapTempo(c.Global.Load().Tempo)
	}
	return &Controller{c: c}
}

// Handle applies one event; returns false when the user asked to quit
func (k *Controller) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return k.handleKey(ev)
	case *tcell.EventMouse:
		k.handleMouse(ev)
	case *tcell.EventResize:
		if k.c.Renderer != nil {
			k.c.Renderer.Resize()
		}
	}
	return true
}

func (k *Controller) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		k.update(func(g *state.Global) { g.Volume += 0.05 })
	case tcell.KeyDown:
		k.update(func(g *state.Global) { g.Volume -= 0.05 })
	case tcell.KeyRight:
		k.update(func(g *state.Global) { g.TimeScale += 0.1 })
	case tcell.KeyLeft:
		k.update(func(g *state.Global) { g.TimeScale -= 0.1 })
	case tcell.KeyRune:
		return k.handleRune(ev.Rune())
	}
	return true
}

func (k *Controller) handleRune(ch rune) bool {
	switch ch {
	case 'q':
		return false
	case ' ':
		k.update(func(g *state.Global) { g.Playing = !g.Playing })
	case 't':
		k.tap()
	case 's', 'S':
		step := 1
		if ch == 'S' {
			step = -1
		}
		k.update(func(g *state.Global) { g.Scale = cycleScale(g.Scale, step) })
	case 'r':
		k.update(func(g *state.Global) { g.RootKey++ })
	case 'R':
		k.update(func(g *state.Global) { g.RootKey-- })
	case 'c':
		g := k.update(func(g *state.Global) { g.Chaos = !g.Chaos })
		k.notify("chaos %s", onOff(g.Chaos))
	case 'f':
		g := k.update(func(g *state.Global) { g.Physics.Flock.Enabled = !g.Physics.Flock.Enabled })
		k.notify("flock %s", onOff(g.Physics.Flock.Enabled))
	case 'b':
		k.update(func(g *state.Global) {
			if g.Physics.Boundary.Shape == physics.ShapeStar {
				g.Physics.Boundary.Shape = physics.ShapePolygon
			} else {
				g.Physics.Boundary.Shape = physics.ShapeStar
			}
		})
	case '+', '=':
		g := k.update(func(g *state.Global) { g.Physics.BodyCount = min(g.Physics.BodyCount+1, parameter.MaxBodies) })
		// New bodies get their own preset instead of sharing a wrapped slot
		if k.c.Rack != nil && k.c.Rack.Len() < g.Physics.BodyCount {
			k.c.Rack.Resize(g.Physics.BodyCount)
		}
	case '-':
		k.update(func(g *state.Global) { g.Physics.BodyCount = max(g.Physics.BodyCount-1, 1) })
	case ']':
		k.update(func(g *state.Global) { g.Physics.Boundary.Sides = min(g.Physics.Boundary.Sides+1, parameter.MaxSides) })
	case '[':
		k.update(func(g *state.Global) { g.Physics.Boundary.Sides = max(g.Physics.Boundary.Sides-1, parameter.MinSides) })
	case '1', '2', '3', '4', '5':
		i := int(ch - '1')
		k.update(func(g *state.Global) { stepFlux(&g.Flux, i) })
	case '0':
		k.update(func(g *state.Global) { g.Flux = fx.NeutralFlux() })
	case 'd':
		k.update(func(g *state.Global) { g.DroneLevel = cycleLevel(g.DroneLevel) })
	case 'z':
		k.update(func(g *state.Global) { g.NoiseLevel = cycleLevel(g.NoiseLevel) })
	case 'v':
		k.cycleEnergy()
	case 'x':
		if k.c.Instrument != nil {
			k.c.Instrument.Respawn()
		}
	case 'm':
		if k.c.Output != nil {
			if k.c.Output.ToggleMute() {
				k.notify("audio on")
			} else {
				k.notify("muted")
			}
		}
	case 'o':
		k.toggleRecording()
	case ',':
		k.slot = max(k.slot-1, 0)
		k.notify("slot %d", k.slot)
	case '.':
		k.slot = min(k.slot+1, parameter.PresetSlots-1)
		k.notify("slot %d", k.slot)
	case 'w':
		k.save()
	case 'e':
		k.load()
	case 'p':
		if k.mouse == mousePointer {
			k.mouse = mousePad
			k.notify("mouse: macro pad (x time, y filter)")
		} else {
			k.mouse = mousePointer
			k.notify("mouse: pointer (left attract, right repel)")
		}
	}
	return true
}

func (k *Controller) handleMouse(ev *tcell.EventMouse) {
	r := k.c.Renderer
	if r == nil {
		return
	}
	x, y := ev.Position()
	buttons := ev.Buttons() & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	if k.mouse == mousePad {
		if buttons&tcell.Button1 == 0 {
			return
		}
		w, h := r.Size()
		k.c.Global.ApplyMacroPad(float64(x)/float64(max(w-1, 1)), 1-float64(y)/float64(max(h-1, 1)))
		return
	}

	if k.c.Instrument == nil {
		return
	}
	if buttons == 0 {
		k.c.Instrument.ReleasePointer()
		return
	}
	k.c.Instrument.SetPointer(r.ToWorld(x, y), buttons&tcell.Button1 == 0)
}

func (k *Controller) update(fn func(*state.Global)) state.Snapshot {
	return k.c.Global.Update(fn)
}

func (k *Controller) tap() {
	ms := float64(k.c.Now().UnixNano()) / float64(time.Millisecond)
	if bpm, changed := k.c.Tap.Tap(ms); changed {
		k.update(func(g *state.Global) { g.Tempo = bpm })
		k.notify("tempo %.1f bpm", bpm)
	}
}

func (k *Controller) cycleEnergy() {
	k.energy = (k.energy + 1) % len(energyLevels)
	if energyLevels[k.energy] < 0 {
		if k.c.Visual != nil {
			k.c.Visual.Clear()
		}
		k.notify("visual energy: analyzer")
		return
	}
	k.publishEnergy()
	k.notify("visual energy %.0f%%", energyLevels[k.energy]*100)
}

func (k *Controller) publishEnergy() {
	if k.c.Visual == nil || energyLevels[k.energy] < 0 {
		return
	}
	lvl := energyLevels[k.energy]
	hue := float64(k.c.Global.Load().RootKey) * 30
	k.c.Visual.Set(state.Visual{Motion: lvl, Brightness: lvl, Hue: hue})
}

func (k *Controller) toggleRecording() {
	rec := k.c.Recorder
	if rec == nil {
		return
	}
	if !rec.Recording() {
		rec.Start()
		k.notify("recording")
		return
	}
	rec.Stop()
	name := fmt.Sprintf("take-%s.wav", k.c.Now().Format("20060102-150405"))
	path := filepath.Join(k.c.RecordDir, name)
	if k.c.RecordDir != "" {
		if err := os.MkdirAll(k.c.RecordDir, 0o755); err != nil {
			k.notify("recording not saved: %v", err)
			return
		}
	}
	if err := rec.SaveWAV(path); err != nil {
		log.Printf("save recording: %v", err)
		k.notify("recording not saved: %v", err)
		return
	}
	k.notify("saved %s", path)
}

func (k *Controller) save() {
	if k.c.Presets == nil || k.c.Rack == nil {
		return
	}
	if err := k.c.Presets.Save(k.slot, preset.Capture(k.c.Global, k.c.Rack)); err != nil {
		log.Printf("save preset %d: %v", k.slot, err)
		k.notify("save failed: %v", err)
		return
	}
	k.notify("saved slot %d", k.slot)
}

func (k *Controller) load() {
	if k.c.Presets == nil || k.c.Rack == nil {
		return
	}
	snap, err := k.c.Presets.Load(k.slot)
	if err != nil {
		log.Printf("load preset %d: %v", k.slot, err)
		k.notify("load failed: %v", err)
		return
	}
	preset.Apply(snap, k.c.Global, k.c.Rack)
	k.notify("loaded slot %d", k.slot)
}

// Refresh runs once per display frame: keeps manual energy fresh and expires messages
func (k *Controller) Refresh() {
	k.publishEnergy()
	if k.message != "" && k.c.Now().Sub(k.messageAt) > messageTTL {
		k.message = ""
	}
}

// Close saves a take that is still recording
func (k *Controller) Close() {
	if k.c.Recorder != nil && k.c.Recorder.Recording() {
		k.toggleRecording()
	}
}

// HUD returns the controller's part of the heads-up display
func (k *Controller) HUD() HUD {
	h := HUD{Slot: k.slot, Message: k.message}
	if k.c.Recorder != nil {
		h.Recording = k.c.Recorder.Recording()
	}
	if k.c.Output != nil {
		h.Muted = k.c.Output.IsMuted()
	}
	return h
}

func (k *Controller) notify(format string, args ...any) {
	k.message = " " + fmt.Sprintf(format, args...)
	k.messageAt = k.c.Now()
}

func cycleScale(s music.Scale, step int) music.Scale {
	all := music.Scales()
	i := slices.Index(all, s)
	if i < 0 {
		return all[0]
	}
	_, j := vmath.FloorDiv(i+step, len(all))
	return all[j]
}

// stepFlux advances one flux control by a quarter, wrapping to zero past one
func stepFlux(p *fx.FluxParams, i int) {
	fields := [...]*float64{&p.Tape, &p.Fracture, &p.Voltage, &p.Dimension, &p.Prism}
	if i < 0 || i >= len(fields) {
		return
	}
	v := *fields[i] + 0.25
	if v > 1+vmath.Epsilon {
		v = 0
	}
	*fields[i] = v
}

func cycleLevel(v float64) float64 {
	v += 0.2
	if v > 1+vmath.Epsilon {
		return 0
	}
	return v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
