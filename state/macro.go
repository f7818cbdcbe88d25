package state

import (
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/vmath"
)

// MacroPad maps a pad gesture to time scale and normalized global filter
// x in [0,1] spans time scale 0..MaxTimeScale; y in [0,1] spans the filter closed to open
func MacroPad(x, y float64) (timeScale, filter float64) {
	return vmath.Clamp01(x) * parameter.MaxTimeScale, vmath.Clamp01(y)
}

// ApplyMacroPad publishes a pad gesture
func (s *Store) ApplyMacroPad(x, y float64) Snapshot {
	ts, f := MacroPad(x, y)
	return s.Update(func(g *Global) {
		g.TimeScale = ts
		g.GlobalFilter = f
	})
}

// GlobalFilterHz maps the normalized filter to a cutoff in Hz
func GlobalFilterHz(v float64) float64 {
	return vmath.ExpLerp(parameter.FilterMinHz*10, parameter.FilterMaxHz, vmath.Clamp01(v))
}
