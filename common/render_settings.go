package common

import "fmt"

// PresentMode selects how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank (FIFO). Always supported.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// String returns the config name of the mode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(m))
	}
}

// ParsePresentMode maps a config name to a PresentMode.
//
// Parameters:
//   - name: "vsync" or "uncapped"
//
// Returns:
//   - PresentMode: the mode
//   - error: ErrConfiguration for any other name
func ParsePresentMode(name string) (PresentMode, error) {
	for _, m := range []PresentMode{PresentModeVSync, PresentModeUncapped} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown present mode %q, want %q or %q",
		ErrConfiguration, name, PresentModeVSync, PresentModeUncapped)
}

// MSAASampleCount is the number of samples of the render pass color target.
// WebGPU guarantees only 1 and 4.
type MSAASampleCount uint32

const (
	// MSAAOff renders straight into the surface texture.
	MSAAOff MSAASampleCount = 1

	// MSAA4x renders into a 4-sample texture resolved into the surface texture. The default.
	MSAA4x MSAASampleCount = 4
)

// Valid reports whether every WebGPU adapter supports the count.
func (c MSAASampleCount) Valid() bool {
	return c == MSAAOff || c == MSAA4x
}
