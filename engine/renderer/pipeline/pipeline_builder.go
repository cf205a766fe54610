package pipeline

import (
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a Pipeline in NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the shader module. It must hold both entry points.
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = s
	}
}

// WithVertexLayouts sets the vertex buffer layouts of slots 0..n-1.
//
// Parameters:
//   - layouts: the layouts in slot order
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = append(p.vertexLayouts[:0], layouts...)
	}
}

// WithBlendState enables blending with the given state, e.g. &SourceOver. Nil restores opaque output.
func WithBlendState(blend *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blend = blend
	}
}

// WithCullMode sets which faces are discarded.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.primitive.CullMode = mode
	}
}

// WithTopology sets how vertices are assembled into primitives.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.primitive.Topology = topology
	}
}

// WithFrontFace sets the winding treated as front facing.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.primitive.FrontFace = frontFace
	}
}

// WithWriteMask limits the color channels the fragment stage writes.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
