package window

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNative closes after a fixed number of polls and can inject a resize on a given poll.
type fakeNative struct {
	owner     *engineWindow
	polls     int
	closeAt   int
	resizeAt  int
	resizeTo  [2]int
	closed    bool
	destroyed int
}

func (f *fakeNative) surfaceDescriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }
func (f *fakeNative) shouldClose() bool                          { return f.closed }
func (f *fakeNative) requestClose()                              { f.closed = true }
func (f *fakeNative) destroy()                                   { f.destroyed++ }

func (f *fakeNative) pollEvents() {
	f.polls++
	if f.polls == f.resizeAt {
		f.owner.framebufferResized(f.resizeTo[0], f.resizeTo[1])
	}
	if f.polls == f.closeAt {
		f.closed = true
	}
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720, minWidth: 1, minHeight: 1, maxWidth: 10, maxHeight: 10}
	for _, opt := range []WindowBuilderOption{
		WithTitle("rings"),
		WithSize(800, 0),
		WithSizeLimits(100, 50, 1920, 1080),
	} {
		opt(w)
	}

	assert.Equal(t, "rings", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height)
	assert.Equal(t, []int{100, 50, 1920, 1080}, []int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})

	WithSizeLimits(500, 50, 100, 1080)(w)
	assert.Equal(t, 100, w.minWidth, "inverted limits are ignored")
}

func TestAspectRatio(t *testing.T) {
	w := &engineWindow{width: 1280, height: 640}
	aspect, err := w.AspectRatio()
	require.NoError(t, err)
	assert.Equal(t, float32(2), aspect)

	w.height = 0
	_, err = w.AspectRatio()
	assert.True(t, errors.Is(err, common.ErrInvalidParameter))
}

func TestProcessMessages_UpdatesUntilClosed(t *testing.T) {
	w := &engineWindow{width: 640, height: 480}
	n := &fakeNative{owner: w, closeAt: 4, resizeAt: 2, resizeTo: [2]int{1024, 256}}
	w.native = n

	var updates int
	var resized [][2]int
	w.SetUpdateCallback(func() { updates++ })
	w.SetResizeCallback(func(width, height int) { resized = append(resized, [2]int{width, height}) })

	w.ProcessMessages()

	assert.Equal(t, 3, updates, "the poll that closes the window runs no update")
	assert.Equal(t, [][2]int{{1024, 256}}, resized)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 256, w.Height())
	assert.False(t, w.IsRunning())
}

func TestRequestClose_StopsLoop(t *testing.T) {
	w := &engineWindow{width: 1, height: 1}
	w.native = &fakeNative{owner: w}

	var updates int
	w.SetUpdateCallback(func() {
		updates++
		w.RequestClose()
	})
	w.ProcessMessages()

	assert.Equal(t, 1, updates)
	require.NoError(t, w.Close())
	assert.Equal(t, 1, w.native.(*fakeNative).destroyed)
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.NotPanics(t, w.RequestClose)
	assert.NotPanics(t, w.ProcessMessages)
	assert.Error(t, w.Close())
}

func TestGLFWNative_ClosedIsInert(t *testing.T) {
	g := &glfwNative{}
	assert.True(t, g.shouldClose())
	assert.Nil(t, g.surfaceDescriptor())
	assert.NotPanics(t, g.requestClose)
	assert.NotPanics(t, g.destroy)
}
