package fx

import "math"

// SoftClip is an arctangent transfer curve normalized so SoftClip(1, drive) == 1
func SoftClip(x, drive float64) float64 {
	if drive <= 0 {
		return x
	}
	return math.Atan(x*drive) / math.Atan(drive)
}
