package layout

// Preset layouts shared by the shaders in engine/renderer/shader. Every preset must match the
// struct or vertex attributes declared by the shader it feeds.
var (
	// UniformStaticSchema is a per-object uniform: color vec4f @0, offset vec2f @16, padded to 32.
	UniformStaticSchema = mustSchema(NewSchema("uniform-static", 32,
		WithAlignment(16),
		WithField(FieldColor, 0, Float32x4),
		WithField(FieldOffset, 16, Float32x2),
	))

	// StorageStaticSchema is one element of a storage array<OurStruct>, laid out like UniformStaticSchema.
	StorageStaticSchema = mustSchema(NewSchema("storage-static", 32,
		WithAlignment(16),
		WithField(FieldColor, 0, Float32x4),
		WithField(FieldOffset, 16, Float32x2),
	))

	// DynamicScaleSchema holds the aspect-corrected scale vec2f rewritten every frame.
	DynamicScaleSchema = mustSchema(NewSchema("dynamic-scale", 8,
		WithAlignment(8),
		WithField(FieldScale, 0, Float32x2),
	))

	// InstanceStaticSchema is a per-instance vertex buffer: color unorm8x4 @0, offset float32x2 @4.
	InstanceStaticSchema = mustSchema(NewSchema("instance-static", 12,
		WithField(FieldColor, 0, Unorm8x4),
		WithField(FieldOffset, 4, Float32x2),
	))

	// InstanceDynamicSchema is the per-instance scale vertex buffer.
	InstanceDynamicSchema = mustSchema(NewSchema("instance-dynamic", 8,
		WithField(FieldScale, 0, Float32x2),
	))

	// VertexPositionSchema is a per-vertex position only layout.
	VertexPositionSchema = mustSchema(NewSchema("vertex-position", 8,
		WithField(FieldPosition, 0, Float32x2),
	))

	// VertexColorSchema is a per-vertex position float32x2 @0 with color unorm8x4 @8.
	VertexColorSchema = mustSchema(NewSchema("vertex-color", 12,
		WithField(FieldPosition, 0, Float32x2),
		WithField(FieldColor, 8, Unorm8x4),
	))
)

func mustSchema(s Schema, err error) Schema {
	if err != nil {
		panic(err)
	}
	return s
}
