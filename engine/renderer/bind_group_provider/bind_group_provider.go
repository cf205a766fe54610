package bind_group_provider

import (
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// bufferSet holds GPU buffers keyed by binding index or vertex buffer slot.
type bufferSet map[int]*wgpu.Buffer

// keys returns the occupied indices in ascending order.
func (s bufferSet) keys() []int {
	return slices.Sorted(maps.Keys(s))
}

// release frees every buffer and empties the set.
func (s bufferSet) release() {
	for k, buf := range s {
		if buf != nil {
			buf.Release()
		}
		delete(s, k)
	}
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	// GPU resources, created by the Renderer and freed by Release.
	bindGroup     *wgpu.BindGroup
	bound         bufferSet
	vertexBuffers bufferSet
	indexBuffer   *wgpu.Buffer

	// element counts per instance; an index count selects indexed draws
	indexCount  int
	vertexCount int
}

// BindGroupProvider owns the GPU resources of one draw: the buffers behind its bind group, the
// per-slot vertex buffers, an optional index buffer and the per-instance element count.
//
// The frame driver creates a provider with a label and a count, the Renderer's Init* methods
// allocate its resources, WriteBuffers fills them through BufferWrite entries and DrawCall
// reads everything back.
type BindGroupProvider interface {
	// Release frees every GPU resource held by the provider. The provider can be initialized again afterwards.
	Release()

	// Label returns the debug label used to name GPU resources.
	Label() string

	// BindGroup returns the bind group, or nil before InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Bindings returns the binding indices that hold a buffer, ascending.
	Bindings() []int

	// VertexBuffer returns the vertex buffer in a slot, or nil.
	//
	// Parameters:
	//   - slot: the vertex buffer slot
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer(slot int) *wgpu.Buffer

	// VertexBufferSlots returns the occupied vertex buffer slots, ascending.
	VertexBufferSlots() []int

	// IndexBuffer returns the index buffer, or nil for non-indexed draws.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the indices drawn per instance.
	IndexCount() int

	// VertexCount returns the vertices drawn per instance of a non-indexed draw.
	VertexCount() int

	// Indexed reports whether draws use the index buffer.
	Indexed() bool

	// SetBindGroup stores the bind group created by the Renderer.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores the buffer created for a binding index.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetVertexBuffer stores the vertex buffer created for a slot.
	SetVertexBuffer(slot int, buf *wgpu.Buffer)

	// SetIndexBuffer stores the index buffer created by the Renderer.
	SetIndexBuffer(buf *wgpu.Buffer)

	// SetIndexCount switches the provider to indexed draws of count indices per instance.
	// A non-positive count switches back to non-indexed draws.
	SetIndexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label used for GPU resource names
//   - options: count options
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:         label,
		bound:         bufferSet{},
		vertexBuffers: bufferSet{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string                      { return p.label }
func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup         { return p.bindGroup }
func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer    { return p.bound[binding] }
func (p *bindGroupProvider) Bindings() []int                    { return p.bound.keys() }
func (p *bindGroupProvider) VertexBuffer(slot int) *wgpu.Buffer { return p.vertexBuffers[slot] }
func (p *bindGroupProvider) VertexBufferSlots() []int           { return p.vertexBuffers.keys() }
func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer          { return p.indexBuffer }
func (p *bindGroupProvider) IndexCount() int                    { return p.indexCount }
func (p *bindGroupProvider) VertexCount() int                   { return p.vertexCount }
func (p *bindGroupProvider) Indexed() bool                      { return p.indexCount > 0 }

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup)            { p.bindGroup = bg }
func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer)    { p.bound[binding] = buf }
func (p *bindGroupProvider) SetVertexBuffer(slot int, buf *wgpu.Buffer) { p.vertexBuffers[slot] = buf }
func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer)            { p.indexBuffer = buf }

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = max(count, 0)
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.bound.release()
	p.vertexBuffers.release()
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
