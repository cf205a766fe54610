package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline("rings")

	assert.Equal(t, "rings", p.PipelineKey())
	assert.Nil(t, p.Shader())
	assert.Empty(t, p.VertexLayouts())
	assert.Nil(t, p.RenderPipeline())
	assert.Empty(t, p.BindGroupIndices())
	assert.Equal(t, wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  wgpu.CullModeNone,
	}, p.Primitive())

	target := p.ColorTarget(wgpu.TextureFormatBGRA8Unorm)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, target.Format)
	assert.Nil(t, target.Blend)
	assert.Equal(t, wgpu.ColorWriteMaskAll, target.WriteMask)
}

func TestNewPipeline_Options(t *testing.T) {
	s, err := shader.Load(shader.VertexBuffers)
	require.NoError(t, err)

	layouts := []wgpu.VertexBufferLayout{
		{ArrayStride: 8, StepMode: wgpu.VertexStepModeVertex},
		{ArrayStride: 12, StepMode: wgpu.VertexStepModeInstance},
	}
	p := NewPipeline("vb",
		WithShader(s),
		WithVertexLayouts(layouts...),
		WithBlendState(&SourceOver),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)

	assert.Equal(t, s, p.Shader())
	assert.Equal(t, layouts, p.VertexLayouts())
	assert.Equal(t, wgpu.CullModeBack, p.Primitive().CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Primitive().Topology)
	assert.Equal(t, wgpu.FrontFaceCW, p.Primitive().FrontFace)

	target := p.ColorTarget(wgpu.TextureFormatRGBA8Unorm)
	require.NotNil(t, target.Blend)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, target.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.ColorWriteMaskRed, target.WriteMask)
}

func TestPipeline_BindGroupIndicesSorted(t *testing.T) {
	p := NewPipeline("groups")
	p.SetBindGroupLayout(2, nil)
	p.SetBindGroupLayout(0, nil)
	p.SetBindGroupLayout(1, nil)

	assert.Equal(t, []int{0, 1, 2}, p.BindGroupIndices())

	p.Release()
	assert.Empty(t, p.BindGroupIndices())
}
