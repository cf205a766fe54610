package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwNative is a GLFW window without a client API; WebGPU owns presentation.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
type glfwNative struct {
	win *glfw.Window
}

var _ native = &glfwNative{}

// openGLFW initializes GLFW and creates the window for w, routing framebuffer resizes and Escape back to w.
// On success w holds the framebuffer size, which exceeds the requested size on high-DPI displays.
func openGLFW(w *engineWindow) (*glfwNative, error) {
	// GLFW must be driven from the thread that initialized it.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw create window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.framebufferResized(width, height)
	})
	win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})

	w.width, w.height = win.GetFramebufferSize()
	return &glfwNative{win: win}, nil
}

func (g *glfwNative) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	if g.win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(g.win)
}

func (g *glfwNative) shouldClose() bool {
	return g.win == nil || g.win.ShouldClose()
}

func (g *glfwNative) requestClose() {
	if g.win != nil {
		g.win.SetShouldClose(true)
	}
}

// pollEvents processes pending events without blocking.
func (g *glfwNative) pollEvents() {
	glfw.PollEvents()
}

// destroy releases the window and terminates GLFW. Only the first call has an effect.
func (g *glfwNative) destroy() {
	if g.win == nil {
		return
	}
	g.win.Destroy()
	g.win = nil
	glfw.Terminate()
}
