package layout

// SchemaBuilderOption is a functional option applied to a schema during construction via NewSchema.
type SchemaBuilderOption func(*schema)

// WithField appends a field to the schema. Fields keep their declaration order, which is also
// the order of shader locations produced by VertexBufferLayout.
//
// Parameters:
//   - name: unique field name
//   - offset: byte offset within the stride, multiple of 4
//   - encoding: how the field's components are encoded
//
// Returns:
//   - SchemaBuilderOption: option function to apply
func WithField(name string, offset uint64, encoding Encoding) SchemaBuilderOption {
	return func(s *schema) {
		s.fields = append(s.fields, Field{Name: name, Offset: offset, Encoding: encoding})
	}
}

// WithAlignment sets the minimum alignment the stride must honor.
// Uniform and storage structs containing a vec4 need 16.
//
// Parameters:
//   - alignment: a power of two, at least 4
//
// Returns:
//   - SchemaBuilderOption: option function to apply
func WithAlignment(alignment uint64) SchemaBuilderOption {
	return func(s *schema) {
		s.alignment = alignment
	}
}
