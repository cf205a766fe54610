package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-rings/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rings/engine/window"
)

// EngineBuilderOption is a functional option for configuring an engine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window whose message loop drives the engine.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDriver sets the frame driver rendered once per loop iteration.
//
// Parameters:
//   - d: the frame driver
//
// Returns:
//   - EngineBuilderOption: option function
func WithDriver(d FrameDriver) EngineBuilderOption {
	return func(e *engine) {
		e.driver = d
	}
}

// WithResizer sets the component notified of framebuffer resizes, normally the renderer.
//
// Parameters:
//   - r: the resizer
//
// Returns:
//   - EngineBuilderOption: option function
func WithResizer(r Resizer) EngineBuilderOption {
	return func(e *engine) {
		e.resizer = r
	}
}

// WithProfiling enables or disables the profiler.
//
// Parameters:
//   - enabled: whether profiling is on
//   - interval: time between profiler reports (defaults to 1 second if <= 0)
//
// Returns:
//   - EngineBuilderOption: option function
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profiler = profiler.NewProfiler(interval)
	}
}

// WithRenderFrameLimit sets a render frame rate cap.
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}
