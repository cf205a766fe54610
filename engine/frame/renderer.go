package frame

import "github.com/Carmen-Shannon/oxy-rings/engine/renderer/bind_group_provider"

// Renderer is the subset of the GPU renderer the Driver depends on. renderer.Renderer implements it.
// Buffers are created by the Renderer and stored on the providers passed in.
type Renderer interface {
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitVertexBuffer(provider bind_group_provider.BindGroupProvider, slot int, data []byte) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int, sizes map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite) error
	BeginFrame() error
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
	EndFrame() error
	Present()
}
