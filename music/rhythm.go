package music

// EuclidHit reports whether step carries a hit in an even distribution of hits over steps
// Pure and restartable; step may grow without bound
func EuclidHit(step, hits, steps int) bool {
	if steps <= 0 || hits <= 0 {
		return false
	}
	if hits >= steps {
		return true
	}
	if step < 0 {
		step = -step
	}
	return (step%steps)*hits%steps < hits
}

// EuclidPattern expands one full period
func EuclidPattern(hits, steps int) []bool {
	if steps <= 0 {
		return nil
	}
	out := make([]bool, steps)
	for i := range out {
		out[i] = EuclidHit(i, hits, steps)
	}
	return out
}
