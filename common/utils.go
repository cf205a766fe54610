package common

import "slices"

// Coalesce returns the first value that is not the zero value of T, or the zero value if there is none.
// Command-line overrides use it to fall back to the config file.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	if i := slices.IndexFunc(values, func(v T) bool { return v != zero }); i >= 0 {
		return values[i]
	}
	return zero
}
