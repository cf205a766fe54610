package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

// headlessWindow satisfies window.Window without a platform window. Its nil surface descriptor
// must never reach the backend in these tests.
type headlessWindow struct{}

func (headlessWindow) SetUpdateCallback(func())                  {}
func (headlessWindow) SetResizeCallback(func(width, height int)) {}
func (headlessWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	panic("surface requested")
}
func (headlessWindow) IsRunning() bool               { return false }
func (headlessWindow) RequestClose()                 {}
func (headlessWindow) Close() error                  { return nil }
func (headlessWindow) ProcessMessages()              {}
func (headlessWindow) Width() int                    { return 1 }
func (headlessWindow) Height() int                   { return 1 }
func (headlessWindow) AspectRatio() (float32, error) { return 1, nil }

func TestNewRenderer_RejectsMSAABeforeTouchingTheSurface(t *testing.T) {
	var r Renderer
	var err error
	assert.NotPanics(t, func() {
		r, err = NewRenderer(headlessWindow{}, WithMSAA(8))
	})
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Nil(t, r)
}
