package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultAlignment is the stride alignment used when WithAlignment is not given.
const DefaultAlignment = 4

// Field is a named, encoded value at a fixed byte offset within each slot.
type Field struct {
	Name     string
	Offset   uint64
	Encoding Encoding
}

// End returns the byte just past the field.
func (f Field) End() uint64 {
	return f.Offset + f.Encoding.Size()
}

// schema is the implementation of the Schema interface.
type schema struct {
	name      string
	stride    uint64
	alignment uint64
	fields    []Field
}

// Schema describes the byte layout of one slot of a packed buffer. Slot i of a buffer packed with
// a schema starts at i*Stride() and holds the fields of object i. Bytes not covered by a field are zero.
// A Schema is immutable and validated once at construction.
type Schema interface {
	// Name returns the schema name used in logs and buffer labels.
	//
	// Returns:
	//   - string: the schema name
	Name() string

	// Stride returns the distance in bytes between consecutive slots.
	//
	// Returns:
	//   - uint64: the stride
	Stride() uint64

	// Alignment returns the minimum alignment the stride honors.
	//
	// Returns:
	//   - uint64: the alignment
	Alignment() uint64

	// Fields returns the fields in declaration order.
	//
	// Returns:
	//   - []Field: a copy of the field list
	Fields() []Field

	// Field looks up a field by name.
	//
	// Parameters:
	//   - name: the field name
	//
	// Returns:
	//   - Field: the field
	//   - bool: false if the schema has no such field
	Field(name string) (Field, bool)

	// Size returns the byte size of a buffer holding count slots.
	//
	// Parameters:
	//   - count: number of slots
	//
	// Returns:
	//   - uint64: count * Stride()
	Size(count int) uint64

	// VertexBufferLayout describes this schema as a vertex buffer for a render pipeline.
	// Each field becomes one attribute, with shader locations assigned in declaration order.
	//
	// Parameters:
	//   - stepMode: per-vertex or per-instance stepping
	//   - firstLocation: shader location of the first field
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the vertex buffer layout
	VertexBufferLayout(stepMode wgpu.VertexStepMode, firstLocation uint32) wgpu.VertexBufferLayout

	String() string
}

var _ Schema = &schema{}

// NewSchema builds and validates a schema.
//
// Parameters:
//   - name: the schema name
//   - stride: bytes per slot
//   - options: fields and alignment
//
// Returns:
//   - Schema: the validated schema
//   - error: ErrSchemaOverrun if a field runs past the stride, or another ErrConfiguration for
//     a zero stride, misaligned stride or offset, overlapping or duplicate fields, or no fields
func NewSchema(name string, stride uint64, options ...SchemaBuilderOption) (Schema, error) {
	s := &schema{
		name:      name,
		stride:    stride,
		alignment: DefaultAlignment,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("schema %q: %w", name, err)
	}
	common.Logger().Debug("schema created", "schema", s.String())
	return s, nil
}

func (s *schema) validate() error {
	if s.stride == 0 {
		return fmt.Errorf("%w: stride must be > 0", common.ErrInvalidParameter)
	}
	if s.alignment < 4 || s.alignment&(s.alignment-1) != 0 {
		return fmt.Errorf("%w: alignment %d must be a power of two >= 4", common.ErrInvalidParameter, s.alignment)
	}
	if s.stride%s.alignment != 0 {
		return fmt.Errorf("%w: stride %d is not a multiple of alignment %d", common.ErrConfiguration, s.stride, s.alignment)
	}
	if len(s.fields) == 0 {
		return fmt.Errorf("%w: no fields", common.ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(s.fields))
	for _, f := range s.fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field at offset %d has no name", common.ErrConfiguration, f.Offset)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", common.ErrConfiguration, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Encoding.valid() {
			return fmt.Errorf("%w: field %q has unknown encoding %d", common.ErrConfiguration, f.Name, f.Encoding)
		}
		if f.Offset%4 != 0 {
			return fmt.Errorf("%w: field %q offset %d is not 4-byte aligned", common.ErrConfiguration, f.Name, f.Offset)
		}
		if f.End() > s.stride {
			return fmt.Errorf("%w: field %q spans [%d, %d) but stride is %d", common.ErrSchemaOverrun, f.Name, f.Offset, f.End(), s.stride)
		}
	}

	sorted := slices.Clone(s.fields)
	slices.SortFunc(sorted, func(a, b Field) int {
		return int(a.Offset) - int(b.Offset)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Offset < sorted[i-1].End() {
			return fmt.Errorf("%w: field %q overlaps field %q", common.ErrConfiguration, sorted[i].Name, sorted[i-1].Name)
		}
	}
	return nil
}

func (s *schema) Name() string {
	return s.name
}

func (s *schema) Stride() uint64 {
	return s.stride
}

func (s *schema) Alignment() uint64 {
	return s.alignment
}

func (s *schema) Fields() []Field {
	return slices.Clone(s.fields)
}

func (s *schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *schema) Size(count int) uint64 {
	return uint64(count) * s.stride
}

func (s *schema) VertexBufferLayout(stepMode wgpu.VertexStepMode, firstLocation uint32) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(s.fields))
	for i, f := range s.fields {
		attrs[i] = wgpu.VertexAttribute{
			Format:         f.Encoding.VertexFormat(),
			Offset:         f.Offset,
			ShaderLocation: firstLocation + uint32(i),
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: s.stride,
		StepMode:    stepMode,
		Attributes:  attrs,
	}
}

func (s *schema) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s{stride=%d", s.name, s.stride)
	for _, f := range s.fields {
		fmt.Fprintf(&b, " %s@%d:%s", f.Name, f.Offset, f.Encoding)
	}
	b.WriteString("}")
	return b.String()
}
