package view

import (
	"math"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/ricochet/vmath"
)

// bodyTags is the number of distinct body colours
const bodyTags = 8

// hueStep is the minimum hue change that rebuilds the body colours
const hueStep = 2.0

// Palette maps colour tags, mark life and visual hue to terminal colours
// Body colours are spread in HCL around the visual hue so they stay perceptually even
type Palette struct {
	hue    float64
	bodies [bodyTags]colorful.Color

	background colorful.Color
	suppressed colorful.Color
	flock      colorful.Color
	dim        colorful.Color
	bright     colorful.Color
}

// NewPalette builds colours around hue in degrees
func NewPalette(hue float64) *Palette {
	p := &Palette{
		background: colorful.Color{R: 0.04, G: 0.04, B: 0.06},
		suppressed: colorful.Hcl(0, 0, 0.45),
		dim:        colorful.Hcl(250, 0.1, 0.3),
		bright:     colorful.Hcl(200, 0.5, 0.85),
	}
	p.build(wrapHue(hue))
	return p
}

func (p *Palette) build(hue float64) {
	p.hue = hue
	for i := range p.bodies {
		p.bodies[i] = colorful.Hcl(wrapHue(hue+float64(i)*360/bodyTags), 0.55, 0.72).Clamped()
	}
	p.flock = colorful.Hcl(wrapHue(hue+180), 0.35, 0.8).Clamped()
}

// SetHue rotates the palette when hue moved far enough to be visible
func (p *Palette) SetHue(hue float64) {
	hue = wrapHue(hue)
	d := math.Abs(hue - p.hue)
	if math.Min(d, 360-d) >= hueStep {
		p.build(hue)
	}
}

// Hue returns the hue the palette was built around
func (p *Palette) Hue() float64 { return p.hue }

// Body returns the colour for a body tag
func (p *Palette) Body(tag uint8) tcell.Color {
	return toTCell(p.bodies[int(tag)%bodyTags])
}

// Trail fades a body colour toward the background by age in [0,1]
func (p *Palette) Trail(tag uint8, age float64) tcell.Color {
	return toTCell(p.bodies[int(tag)%bodyTags].BlendLab(p.background, vmath.Clamp01(age)))
}

// Mark fades from its accent to the background as life runs out
// Suppressed marks use a neutral grey
func (p *Palette) Mark(life float64, suppressed bool) tcell.Color {
	accent := p.bright
	if suppressed {
		accent = p.suppressed
	}
	return toTCell(p.background.BlendLab(accent, vmath.Clamp01(life)))
}

// Flock returns the flock unit colour
func (p *Palette) Flock() tcell.Color { return toTCell(p.flock) }

// Boundary brightens the container outline with visual energy
func (p *Palette) Boundary(energy float64) tcell.Color {
	return toTCell(p.dim.BlendHcl(p.bright, vmath.Clamp01(energy)).Clamped())
}

// Meter colours a level from calm to hot
func (p *Palette) Meter(level float64) tcell.Color {
	calm := colorful.Hcl(140, 0.5, 0.7)
	hot := colorful.Hcl(20, 0.7, 0.6)
	return toTCell(calm.BlendHcl(hot, vmath.Clamp01(level)).Clamped())
}

func toTCell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func wrapHue(h float64) float64 {
	h = math.Mod(vmath.Finite(h, 0), 360)
	if h < 0 {
		h += 360
	}
	return h
}
