package monitor

// DownsampleTrail downsamples a trail to a maximum number of points.
// Uses simple decimation to reduce the number of points for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new. If len(trail) <= maxPoints, all points are copied.
func DownsampleTrail(dst []Position, trail []Position, maxPoints int) []Position {
	if len(trail) <= maxPoints {
		if cap(dst) >= len(trail) {
			dst = dst[:len(trail)]
			copy(dst, trail)
			return dst
		}
		result := make([]Position, len(trail))
		copy(result, trail)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]Position, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(len(trail)) / float64(maxPoints)

	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(trail) {
			dst = append(dst, trail[idx])
		}
	}

	return dst
}
