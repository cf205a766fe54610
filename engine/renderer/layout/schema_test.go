package layout

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingSizes(t *testing.T) {
	cases := []struct {
		enc        Encoding
		size       uint64
		components int
		format     wgpu.VertexFormat
	}{
		{Float32, 4, 1, wgpu.VertexFormatFloat32},
		{Float32x2, 8, 2, wgpu.VertexFormatFloat32x2},
		{Float32x3, 12, 3, wgpu.VertexFormatFloat32x3},
		{Float32x4, 16, 4, wgpu.VertexFormatFloat32x4},
		{Unorm8x4, 4, 4, wgpu.VertexFormatUnorm8x4},
	}
	for _, c := range cases {
		t.Run(c.enc.String(), func(t *testing.T) {
			assert.Equal(t, c.size, c.enc.Size())
			assert.Equal(t, c.components, c.enc.Components())
			assert.Equal(t, c.format, c.enc.VertexFormat())
		})
	}
	assert.Equal(t, uint64(0), Encoding(99).Size())
}

func TestUnorm8(t *testing.T) {
	assert.Equal(t, byte(0), unorm8(-1))
	assert.Equal(t, byte(0), unorm8(0))
	assert.Equal(t, byte(128), unorm8(0.5))
	assert.Equal(t, byte(255), unorm8(1))
	assert.Equal(t, byte(255), unorm8(7))
}

func TestNewSchemaValid(t *testing.T) {
	s, err := NewSchema("test", 32,
		WithAlignment(16),
		WithField("color", 0, Float32x4),
		WithField("offset", 16, Float32x2),
	)
	require.NoError(t, err)
	assert.Equal(t, "test", s.Name())
	assert.Equal(t, uint64(32), s.Stride())
	assert.Equal(t, uint64(16), s.Alignment())
	assert.Equal(t, uint64(320), s.Size(10))

	f, ok := s.Field("offset")
	require.True(t, ok)
	assert.Equal(t, uint64(16), f.Offset)
	assert.Equal(t, uint64(24), f.End())

	_, ok = s.Field("missing")
	assert.False(t, ok)
	assert.Equal(t, "test{stride=32 color@0:float32x4 offset@16:float32x2}", s.String())
}

func TestNewSchemaInvalid(t *testing.T) {
	cases := map[string]struct {
		stride  uint64
		options []SchemaBuilderOption
		want    error
	}{
		"zero stride": {0, []SchemaBuilderOption{WithField("a", 0, Float32)}, common.ErrInvalidParameter},
		"overrun":     {8, []SchemaBuilderOption{WithField("a", 4, Float32x2)}, common.ErrSchemaOverrun},
		"overlap": {16, []SchemaBuilderOption{
			WithField("a", 0, Float32x2),
			WithField("b", 4, Float32),
		}, common.ErrConfiguration},
		"duplicate": {16, []SchemaBuilderOption{
			WithField("a", 0, Float32),
			WithField("a", 4, Float32),
		}, common.ErrConfiguration},
		"misaligned offset":  {16, []SchemaBuilderOption{WithField("a", 2, Float32)}, common.ErrConfiguration},
		"misaligned stride":  {24, []SchemaBuilderOption{WithAlignment(16), WithField("a", 0, Float32)}, common.ErrConfiguration},
		"bad alignment":      {24, []SchemaBuilderOption{WithAlignment(6), WithField("a", 0, Float32)}, common.ErrInvalidParameter},
		"no fields":          {16, nil, common.ErrConfiguration},
		"unnamed field":      {16, []SchemaBuilderOption{WithField("", 0, Float32)}, common.ErrConfiguration},
		"unknown encoding":   {16, []SchemaBuilderOption{WithField("a", 0, Encoding(42))}, common.ErrConfiguration},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := NewSchema(name, c.stride, c.options...)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, c.want)
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestNewSchemaOverlapIndependentOfOrder(t *testing.T) {
	_, err := NewSchema("rev", 16,
		WithField("b", 8, Float32x2),
		WithField("a", 0, Float32x3),
	)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestPresetSchemas(t *testing.T) {
	assert.Equal(t, uint64(32), UniformStaticSchema.Stride())
	assert.Equal(t, uint64(32), StorageStaticSchema.Stride())
	assert.Equal(t, uint64(8), DynamicScaleSchema.Stride())
	assert.Equal(t, uint64(12), InstanceStaticSchema.Stride())
	assert.Equal(t, uint64(8), InstanceDynamicSchema.Stride())
	assert.Equal(t, uint64(8), VertexPositionSchema.Stride())
	assert.Equal(t, uint64(12), VertexColorSchema.Stride())

	require.NoError(t, CheckStaticSchema(UniformStaticSchema))
	require.NoError(t, CheckStaticSchema(InstanceStaticSchema))
	require.NoError(t, CheckDynamicSchema(DynamicScaleSchema))
	require.NoError(t, CheckVertexSchema(VertexColorSchema))
	require.Error(t, CheckVertexSchema(InstanceStaticSchema))
}

func TestVertexBufferLayout(t *testing.T) {
	l := InstanceStaticSchema.VertexBufferLayout(wgpu.VertexStepModeInstance, 1)
	assert.Equal(t, uint64(12), l.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, l.StepMode)
	require.Len(t, l.Attributes, 2)
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatUnorm8x4, Offset: 0, ShaderLocation: 1}, l.Attributes[0])
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 4, ShaderLocation: 2}, l.Attributes[1])
}
