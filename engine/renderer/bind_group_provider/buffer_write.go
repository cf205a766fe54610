package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferTarget selects which of a provider's buffers a BufferWrite lands in.
type BufferTarget int

const (
	// TargetBinding writes the buffer bound at BufferWrite.Binding.
	TargetBinding BufferTarget = iota
	// TargetVertex writes the vertex buffer in slot BufferWrite.Binding.
	TargetVertex
	// TargetIndex writes the index buffer. Binding is ignored.
	TargetIndex
)

// BufferWrite describes a single GPU buffer write operation targeting a specific buffer
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Target   BufferTarget
	Binding  int
	Offset   uint64
	Data     []byte
}

// Buffer resolves the GPU buffer the write targets, or nil if it has not been created.
func (w BufferWrite) Buffer() *wgpu.Buffer {
	switch w.Target {
	case TargetVertex:
		return w.Provider.VertexBuffer(w.Binding)
	case TargetIndex:
		return w.Provider.IndexBuffer()
	default:
		return w.Provider.Buffer(w.Binding)
	}
}
