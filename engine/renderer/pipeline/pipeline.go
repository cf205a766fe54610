package pipeline

import (
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// SourceOver is straight-alpha "over" compositing.
var SourceOver = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key           string
	shader        shader.Shader
	vertexLayouts []wgpu.VertexBufferLayout

	primitive wgpu.PrimitiveState
	blend     *wgpu.BlendState
	writeMask wgpu.ColorWriteMask

	// set by the renderer on registration
	renderPipeline *wgpu.RenderPipeline
	groupLayouts   map[int]*wgpu.BindGroupLayout
}

// Pipeline is the configuration of one render pipeline and, once a renderer registers it, the GPU
// objects created from it. The shader module carries both the vertex and the fragment entry point.
type Pipeline interface {
	// PipelineKey returns the key the renderer registers the pipeline under.
	PipelineKey() string

	// Shader returns the shader module, or nil if none was set.
	Shader() shader.Shader

	// VertexLayouts returns one vertex buffer layout per slot, in slot order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// Primitive returns how vertices are assembled and which faces are culled.
	Primitive() wgpu.PrimitiveState

	// ColorTarget returns the blend and write state for a color attachment of the given format.
	//
	// Parameters:
	//   - format: the attachment format
	//
	// Returns:
	//   - wgpu.ColorTargetState: the target state; Blend is nil for opaque pipelines
	ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState

	// RenderPipeline returns the GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the GPU layout of a bind group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if none was created for group
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// BindGroupIndices returns the groups that have a layout, ascending.
	BindGroupIndices() []int

	// SetRenderPipeline stores the GPU pipeline created by the renderer.
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// SetBindGroupLayout stores the GPU layout created for a group.
	SetBindGroupLayout(group int, l *wgpu.BindGroupLayout)

	// Release frees the GPU objects. The configuration can be registered again.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an opaque triangle-list pipeline with counter-clockwise front faces and no culling.
//
// Parameters:
//   - key: the registration key
//   - opts: builder options applied in order
//
// Returns:
//   - Pipeline: the unregistered pipeline
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key: key,
		primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		writeMask:    wgpu.ColorWriteMaskAll,
		groupLayouts: make(map[int]*wgpu.BindGroupLayout),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string                      { return p.key }
func (p *pipeline) Shader() shader.Shader                    { return p.shader }
func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout { return p.vertexLayouts }
func (p *pipeline) Primitive() wgpu.PrimitiveState           { return p.primitive }
func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline     { return p.renderPipeline }

func (p *pipeline) ColorTarget(format wgpu.TextureFormat) wgpu.ColorTargetState {
	return wgpu.ColorTargetState{
		Format:    format,
		Blend:     p.blend,
		WriteMask: p.writeMask,
	}
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	return p.groupLayouts[group]
}

func (p *pipeline) BindGroupIndices() []int {
	return slices.Sorted(maps.Keys(p.groupLayouts))
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetBindGroupLayout(group int, l *wgpu.BindGroupLayout) {
	p.groupLayouts[group] = l
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	for g, l := range p.groupLayouts {
		if l != nil {
			l.Release()
		}
		delete(p.groupLayouts, g)
	}
}
