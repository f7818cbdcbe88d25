// Package view is the terminal front end: a tcell renderer for engine frames and the
// keyboard and mouse control layer
package view

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/ricochet/engine"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/physics"
	"github.com/lixenwraith/ricochet/vmath"
)

// Rows reserved for the status line and the help line
const (
	statusRows = 1
	footerRows = 1
)

// Glyphs
const (
	glyphBody     = '●'
	glyphTrail    = '·'
	glyphFlock    = '•'
	glyphBoundary = '░'
	glyphMarkFull = 'O'
	glyphMarkHalf = 'o'
	glyphMarkLow  = '.'
)

// HUD carries front-end state that is not part of a frame
type HUD struct {
	Muted     bool
	Silent    bool
	Recording bool
	Slot      int
	Ceiling   int
	Peak      float64
	Message   string
}

// Renderer draws frames onto a tcell screen; not safe for concurrent use
type Renderer struct {
	screen  tcell.Screen
	palette *Palette
	base    tcell.Style

	w, h   int
	cx, cy int
	sx, sy float64 // cells per world unit
	radius float64
}

// NewRenderer creates a renderer sized to the screen
func NewRenderer(screen tcell.Screen) *Renderer {
	r := &Renderer{
		screen:  screen,
		palette: NewPalette(200),
		base:    tcell.StyleDefault.Background(tcell.ColorReset),
		radius:  1,
	}
	r.Resize()
	return r
}

// Palette returns the colour palette
func (r *Renderer) Palette() *Palette { return r.palette }

// Resize recomputes the viewport from the screen size
func (r *Renderer) Resize() {
	r.w, r.h = r.screen.Size()
	r.fit(r.radius)
}

// fit scales the world so a circle of radius fills the drawable area
// Terminal cells are about twice as tall as wide, so x gets twice the scale of y
func (r *Renderer) fit(radius float64) {
	if radius < vmath.Epsilon {
		radius = 1
	}
	r.radius = radius
	rows := r.h - statusRows - footerRows
	r.cx = r.w / 2
	r.cy = statusRows + rows/2
	r.sy = math.Max(math.Min(float64(r.w-2)/(4*radius), float64(rows-2)/(2*radius)), vmath.Epsilon)
	r.sx = 2 * r.sy
}

// ToCell maps a world position to a screen cell
func (r *Renderer) ToCell(p vmath.Vec2) (x, y int) {
	return r.cx + int(math.Round(p.X*r.sx)), r.cy - int(math.Round(p.Y*r.sy))
}

// ToWorld maps a screen cell back to world coordinates
func (r *Renderer) ToWorld(x, y int) vmath.Vec2 {
	return vmath.V(float64(x-r.cx)/r.sx, float64(r.cy-y)/r.sy)
}

// Size returns the screen size seen at the last resize
func (r *Renderer) Size() (w, h int) { return r.w, r.h }

// Draw renders one frame with the current modulation and HUD
func (r *Renderer) Draw(f *engine.Frame, mod engine.Modulation, hud HUD) {
	r.screen.Clear()

	if f == nil {
		r.text(0, 0, "ricochet: waiting for first tick", r.base)
		r.screen.Show()
		return
	}

	r.palette.SetHue(f.Visual.Hue)
	if radius := boundaryRadius(f.Physics.Boundary); radius != r.radius {
		r.fit(radius)
	}

	r.drawBoundary(f.Physics.Boundary, mod.Energy)
	r.drawTrails(f.Physics.Bodies)
	r.drawMarks(f.Physics.Marks)
	r.drawFlock(f.Physics.Flock)
	r.drawBodies(f.Physics.Bodies)
	r.drawStatus(f, mod, hud)
	r.drawFooter(hud)

	r.screen.Show()
}

func boundaryRadius(verts []vmath.Vec2) float64 {
	radius := 0.0
	for _, v := range verts {
		radius = math.Max(radius, v.Magnitude())
	}
	return radius
}

func (r *Renderer) set(x, y int, ch rune, style tcell.Style) {
	if x < 0 || x >= r.w || y < statusRows || y >= r.h-footerRows {
		return
	}
	r.screen.SetContent(x, y, ch, nil, style)
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) int {
	for _, ch := range s {
		if x >= r.w {
			break
		}
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}

func (r *Renderer) drawBoundary(verts []vmath.Vec2, energy float64) {
	style := r.base.Foreground(r.palette.Boundary(energy))
	for i := range verts {
		a, b := verts[i], verts[(i+1)%len(verts)]
		ax, ay := r.ToCell(a)
		bx, by := r.ToCell(b)
		steps := max(abs(bx-ax), abs(by-ay), 1)
		for s := 0; s <= steps; s++ {
			p := a.Lerp(b, float64(s)/float64(steps))
			x, y := r.ToCell(p)
			r.set(x, y, glyphBoundary, style)
		}
	}
}

func (r *Renderer) drawTrails(bodies []physics.Body) {
	var pts []vmath.Vec2
	for _, b := range bodies {
		pts = b.Trail.Points(pts[:0])
		n := len(pts)
		for i, p := range pts {
			age := 1 - float64(i+1)/float64(n+1)
			x, y := r.ToCell(p)
			r.set(x, y, glyphTrail, r.base.Foreground(r.palette.Trail(b.Color, age)))
		}
	}
}

func (r *Renderer) drawMarks(marks []physics.Mark) {
	for _, m := range marks {
		ch := glyphMarkLow
		switch {
		case m.Life > 0.66:
			ch = glyphMarkFull
		case m.Life > 0.33:
			ch = glyphMarkHalf
		}
		style := r.base.Foreground(r.palette.Mark(m.Life, m.Suppressed))

		// Ring expands as the mark fades
		radius := m.Radius * (2 - m.Life)
		segments := max(8, int(radius*r.sx))
		for s := 0; s < segments; s++ {
			angle := float64(s) / float64(segments) * vmath.TwoPi
			p := m.Pos.Add(vmath.V(radius, 0).Rotate(angle))
			x, y := r.ToCell(p)
			r.set(x, y, ch, style)
		}
	}
}

func (r *Renderer) drawFlock(units []physics.FlockUnit) {
	style := r.base.Foreground(r.palette.Flock())
	for _, u := range units {
		x, y := r.ToCell(u.Pos)
		r.set(x, y, glyphFlock, style)
	}
}

func (r *Renderer) drawBodies(bodies []physics.Body) {
	for _, b := range bodies {
		style := r.base.Foreground(r.palette.Body(b.Color)).Bold(true)
		x, y := r.ToCell(b.Pos)
		r.set(x, y, glyphBody, style)
	}
}

func (r *Renderer) drawStatus(f *engine.Frame, mod engine.Modulation, hud HUD) {
	g := f.Global
	state := "■"
	if g.Playing {
		state = "▶"
	}
	line := fmt.Sprintf(" %s %s %s  %.0f bpm  vol %d%%  time %.2f  filter %.0f Hz",
		state, music.NoteName(g.RootKey), g.Scale, g.Tempo, int(math.Round(g.Volume*100)), g.TimeScale, mod.FilterHz)
	if g.Chaos {
		line += "  chaos"
	}
	if g.Physics.Flock.Enabled {
		line += "  flock"
	}
	line += fmt.Sprintf("  voices %d/%d  played %d  drop %d  slot %d",
		f.Stats.Live, hud.Ceiling, f.Stats.Played, f.Stats.Dropped, hud.Slot)

	style := r.base.Foreground(tcell.ColorSilver)
	x := r.text(0, 0, line, style)

	if hud.Recording {
		x = r.text(x, 0, "  ● REC", style.Foreground(tcell.ColorRed).Bold(true))
	}
	if hud.Muted {
		x = r.text(x, 0, "  MUTE", style.Foreground(tcell.ColorYellow))
	} else if hud.Silent {
		x = r.text(x, 0, "  NO DEVICE", style.Foreground(tcell.ColorYellow))
	}

	// Peak meter fills the rest of the line
	width := r.w - x - 3
	if width < 4 {
		return
	}
	fill := int(vmath.Clamp01(hud.Peak) * float64(width))
	x = r.text(x, 0, "  ", style)
	for i := 0; i < width; i++ {
		ch := '─'
		if i < fill {
			ch = '█'
		}
		level := float64(i) / float64(width)
		r.screen.SetContent(x+i, 0, ch, nil, r.base.Foreground(r.palette.Meter(level)))
	}
}

func (r *Renderer) drawFooter(hud HUD) {
	msg := hud.Message
	if msg == "" {
		msg = helpLine
	}
	r.text(0, r.h-1, msg, r.base.Foreground(tcell.ColorGray))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
