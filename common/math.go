package common

import (
	"fmt"
	"math"
)

// Rand maps a uniform [0, 1) sample onto [min, max).
//
// Parameters:
//   - sample: a uniform sample in [0, 1)
//   - min: lower bound of the output range
//   - max: upper bound of the output range
//
// Returns:
//   - float32: min + sample*(max-min)
func Rand(sample, min, max float32) float32 {
	return min + sample*(max-min)
}

// AspectRatio returns width/height for a drawable surface.
// Both dimensions must be at least one pixel.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - float32: the aspect ratio
//   - error: ErrInvalidParameter if either dimension is below 1
func AspectRatio(width, height int) (float32, error) {
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("%w: surface size %dx%d", ErrInvalidParameter, width, height)
	}
	return float32(width) / float32(height), nil
}

// ClampDimension clamps a surface dimension to [1, limit], the range a swapchain texture accepts.
//
// Parameters:
//   - v: the requested dimension in pixels
//   - limit: the device's maximum 2D texture dimension
//
// Returns:
//   - int: the clamped dimension
func ClampDimension(v int, limit uint32) int {
	return max(1, min(v, int(limit)))
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
