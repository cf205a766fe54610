package renderer

import (
	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/pipeline"
)

// RendererBackend is the GPU API the Renderer delegates to. Every method is safe to call from
// the render goroutine only; the Renderer serializes access.
type RendererBackend interface {
	// MaxTextureDimension returns the MaxTextureDimension2D limit of the device.
	MaxTextureDimension() uint32

	// ConfigureSurface sizes the swapchain and the multisampled color target.
	//
	// Parameters:
	//   - width, height: the surface size in pixels, already clamped to MaxTextureDimension
	//
	// Returns:
	//   - error: ErrCapabilityUnavailable if the surface has no format, or a texture creation error
	ConfigureSurface(width, height int) error

	// SetPresentMode takes effect at the next ConfigureSurface.
	SetPresentMode(mode common.PresentMode)

	// RegisterRenderPipeline creates the bind group layouts and render pipeline of p from its
	// shader and stores them on p.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads a mesh into vertex slot 0 and the index buffer of provider.
	// Empty data leaves the matching buffer unset; indexCount selects indexed draws when positive.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitVertexBuffer uploads data into a new vertex buffer at slot.
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, slot int, data []byte) error

	// InitBindGroup creates the buffers and bind group of one group of a registered pipeline.
	// Buffers already on provider are reused.
	//
	// Parameters:
	//   - provider: receives the buffers and the bind group
	//   - p: the registered pipeline
	//   - group: the bind group index
	//   - sizes: buffer sizes by binding, overriding the shader's minimum binding size
	//
	// Returns:
	//   - error: ErrConfiguration for an unknown group or an unsized binding
	InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, group int, sizes map[int]uint64) error

	// WriteBuffers queues every write. It stops at the first failure.
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the next surface texture and opens the render pass.
	//
	// Returns:
	//   - error: ErrFrameInProgress if the last frame was not presented, ErrTransientGPU if acquisition failed
	BeginFrame() error

	// DrawCall records one instanced draw into the open render pass. bindGroups are set at
	// group indices 0..n-1.
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the render pass and submits the commands.
	EndFrame() error

	// Present shows the submitted frame and returns the surface texture.
	Present()

	// Release frees the device and every object created through it.
	Release()
}
