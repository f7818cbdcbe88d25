package fx

import "github.com/lixenwraith/ricochet/parameter"

const limiterKnee = 0.8

// Limit applies a soft knee above limiterKnee and hard-clips at OutputCeiling
// Non-finite input is muted
func Limit(v float64) float64 {
	if v != v {
		return 0
	}
	if v > limiterKnee {
		v = limiterKnee + 0.2*(1.0-1.0/(1.0+(v-limiterKnee)*5.0))
	} else if v < -limiterKnee {
		v = -limiterKnee - 0.2*(1.0-1.0/(1.0+(-v-limiterKnee)*5.0))
	}

	if v > parameter.OutputCeiling {
		v = parameter.OutputCeiling
	} else if v < -parameter.OutputCeiling {
		v = -parameter.OutputCeiling
	}
	return v
}
