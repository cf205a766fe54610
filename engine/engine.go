package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rings/engine/window"
)

// FrameDriver renders one frame for the given aspect ratio. frame.Driver implements it.
type FrameDriver interface {
	Frame(aspect float32) error
}

// Resizer reconfigures the surface after a framebuffer resize. renderer.Renderer implements it.
type Resizer interface {
	Resize(width, height int) error
}

// engine implements the Engine interface.
// Runs the frame loop on the calling goroutine, driven by the window's message loop.
type engine struct {
	running bool

	window  window.Window
	driver  FrameDriver
	resizer Resizer

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time

	skipped   uint64
	transient uint64
	fatalErr  error
}

// Engine is the main entry point for a tutorial program.
// It wires the window's message loop to the frame driver and the renderer.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers a function called before each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds since the previous frame
	SetFrameCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the frame loop and blocks until the window closes or a frame fails fatally.
	//
	// Returns:
	//   - error: the fatal frame error, nil on a normal close
	Run() error

	// Quit asks the window to close, ending Run after the current iteration.
	// The window itself is left for its owner to Close. Safe to call multiple times.
	Quit()

	// SkippedFrames returns how many frames were skipped because the window had no drawable area.
	//
	// Returns:
	//   - uint64: the skipped frame count
	SkippedFrames() uint64

	// TransientFailures returns how many frames failed with a recoverable GPU error.
	//
	// Returns:
	//   - uint64: the transient failure count
	TransientFailures() uint64
}

// NewEngine creates a new Engine instance with the provided options.
// A window and a frame driver are required; the resizer is optional.
//
// Parameters:
//   - options: functional options for engine configuration (window, driver, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrConfiguration if the window or driver is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler: profiler.NewProfiler(time.Second),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		return nil, fmt.Errorf("%w: engine requires a window", common.ErrConfiguration)
	}
	if e.driver == nil {
		return nil, fmt.Errorf("%w: engine requires a frame driver", common.ErrConfiguration)
	}

	e.window.SetResizeCallback(e.handleResize)
	e.window.SetUpdateCallback(e.handleFrame)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() error {
	e.running = true
	e.lastFrame = time.Now()
	e.window.ProcessMessages()
	e.running = false
	return e.fatalErr
}

func (e *engine) Quit() {
	e.window.RequestClose()
}

// handleResize forwards framebuffer resizes to the renderer.
// A zero-sized framebuffer (minimized window) is ignored; frames are skipped until it returns.
func (e *engine) handleResize(width, height int) {
	if e.resizer == nil || width < 1 || height < 1 {
		return
	}
	if err := e.resizer.Resize(width, height); err != nil {
		common.Logger().Warn("surface resize failed", "width", width, "height", height, "error", err)
	}
}

// handleFrame renders one frame per message loop iteration.
// Transient GPU failures drop the frame and keep the loop alive; anything else ends the loop.
func (e *engine) handleFrame() {
	if e.fatalErr != nil {
		return
	}

	now := time.Now()
	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - now.Sub(e.lastFrame); remaining > 0 {
			time.Sleep(remaining)
			now = time.Now()
		}
	}
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	aspect, err := e.window.AspectRatio()
	if err != nil {
		e.skipped++
		return
	}

	if e.frameCallback != nil {
		e.frameCallback(dt)
	}

	err = e.driver.Frame(aspect)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrTransientGPU):
		e.transient++
		common.Logger().Warn("frame dropped", "error", err)
	default:
		e.fatalErr = err
		common.Logger().Error("frame failed", "error", err)
		e.Quit()
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(err)
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SkippedFrames() uint64 {
	return e.skipped
}

func (e *engine) TransientFailures() uint64 {
	return e.transient
}
