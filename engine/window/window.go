package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the platform window the renderer presents into, its framebuffer size and a
// cooperative message loop. Pressing Escape requests a close.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer changes size.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns the platform surface descriptor WebGPU presents into.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the message loop should keep going.
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration without destroying the window.
	RequestClose()

	// Close destroys the window. Closing twice is a no-op.
	//
	// Returns:
	//   - error: if the window was never opened
	Close() error

	// ProcessMessages polls window events and calls the update callback until the window stops running.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int

	// AspectRatio returns the framebuffer width divided by its height.
	//
	// Returns:
	//   - float32: the aspect ratio
	//   - error: ErrInvalidParameter while the framebuffer has a zero dimension (minimized)
	AspectRatio() (float32, error)
}

// native is the platform half of a window. Implementations call engineWindow.framebufferResized
// and RequestClose from their event handlers.
type native interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	shouldClose() bool
	requestClose()
	pollEvents()
	destroy()
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// requested size in screen coordinates until the platform reports the framebuffer size
	width  int
	height int

	minWidth, minHeight int
	maxWidth, maxHeight int

	native native

	onUpdate func()
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow opens a GLFW window configured by options and locks the calling goroutine to its
// OS thread, which must keep driving the window.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: ErrCapabilityUnavailable if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-rings",
		width:     1280,
		height:    720,
		minWidth:  160,
		minHeight: 120,
		maxWidth:  3840,
		maxHeight: 2160,
	}
	for _, opt := range options {
		opt(w)
	}

	n, err := openGLFW(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCapabilityUnavailable, err)
	}
	w.native = n
	common.Logger().Debug("window created", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

// framebufferResized records a new framebuffer size and forwards it to the resize callback.
func (w *engineWindow) framebufferResized(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && !w.native.shouldClose()
}

func (w *engineWindow) RequestClose() {
	if w.native != nil {
		w.native.requestClose()
	}
}

func (w *engineWindow) Close() error {
	if w.native == nil {
		return fmt.Errorf("window %q is not open", w.title)
	}
	w.native.destroy()
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.native.pollEvents()
		if !w.IsRunning() {
			return
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int  { return w.width }
func (w *engineWindow) Height() int { return w.height }

func (w *engineWindow) AspectRatio() (float32, error) {
	return common.AspectRatio(w.width, w.height)
}
