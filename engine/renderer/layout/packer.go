package layout

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
)

// Field names understood by the pool, dynamic and mesh packers.
const (
	FieldColor    = "color"
	FieldOffset   = "offset"
	FieldScale    = "scale"
	FieldPosition = "position"
)

// FieldSource supplies the value of one field for one slot. dst has exactly
// field.Encoding.Components() entries and is zeroed before the call.
type FieldSource func(slot int, field Field, dst []float32) error

// Record holds the decoded components of every field of one slot, keyed by field name.
type Record map[string][]float32

// Pack allocates a buffer of count slots and fills it from source.
//
// Parameters:
//   - s: the slot layout
//   - count: number of slots
//   - source: supplies field values
//
// Returns:
//   - []byte: the packed bytes, len count*Stride()
//   - error: ErrInvalidParameter for a negative count, or the first error from source
func Pack(s Schema, count int, source FieldSource) ([]byte, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: slot count %d", common.ErrInvalidParameter, count)
	}
	dst := make([]byte, s.Size(count))
	if err := PackInto(dst, s, count, source); err != nil {
		return nil, err
	}
	return dst, nil
}

// PackInto fills the first count slots of dst from source without allocating.
// Padding bytes within those slots are zeroed.
//
// Parameters:
//   - dst: destination, at least count*Stride() bytes
//   - s: the slot layout
//   - count: number of slots
//   - source: supplies field values
//
// Returns:
//   - error: ErrInvalidParameter if dst is too small, or the first error from source
func PackInto(dst []byte, s Schema, count int, source FieldSource) error {
	return packRange(dst, s, 0, count, source)
}

// packRange packs slots [from, to) into dst, which holds the whole buffer.
func packRange(dst []byte, s Schema, from, to int, source FieldSource) error {
	stride := s.Stride()
	if uint64(len(dst)) < uint64(to)*stride {
		return fmt.Errorf("%w: destination holds %d bytes, %d slots of %q need %d",
			common.ErrInvalidParameter, len(dst), to, s.Name(), uint64(to)*stride)
	}

	fields := fieldsOf(s)
	var scratch [4]float32
	for slot := from; slot < to; slot++ {
		base := uint64(slot) * stride
		clear(dst[base : base+stride])
		for _, f := range fields {
			values := scratch[:f.Encoding.Components()]
			clear(values)
			if err := source(slot, f, values); err != nil {
				return fmt.Errorf("slot %d field %q: %w", slot, f.Name, err)
			}
			f.Encoding.encode(dst[base+f.Offset:], values)
		}
	}
	return nil
}

// Unpack decodes packed bytes back into one Record per slot.
// Float fields round-trip exactly; unorm8 fields are within 1/255 of the packed value.
//
// Parameters:
//   - s: the slot layout
//   - data: packed bytes, a whole number of slots
//
// Returns:
//   - []Record: one record per slot
//   - error: ErrInvalidParameter if len(data) is not a multiple of the stride
func Unpack(s Schema, data []byte) ([]Record, error) {
	stride := s.Stride()
	if uint64(len(data))%stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte slots", common.ErrInvalidParameter, len(data), stride)
	}
	count := uint64(len(data)) / stride
	fields := fieldsOf(s)
	out := make([]Record, count)
	for slot := range count {
		rec := make(Record, len(fields))
		base := slot * stride
		for _, f := range fields {
			rec[f.Name] = f.Encoding.decode(data[base+f.Offset:])
		}
		out[slot] = rec
	}
	return out, nil
}

// fieldsOf returns the field list of s, avoiding the copy made by Fields for schemas built by NewSchema.
func fieldsOf(s Schema) []Field {
	if sch, ok := s.(*schema); ok {
		return sch.fields
	}
	return s.Fields()
}

// checkFields verifies every field of s is known and carries at least the required components.
func checkFields(s Schema, required map[string]int) error {
	for _, f := range fieldsOf(s) {
		need, ok := required[f.Name]
		if !ok {
			return fmt.Errorf("%w: schema %q field %q has no source", common.ErrConfiguration, s.Name(), f.Name)
		}
		if f.Encoding.Components() < need {
			return fmt.Errorf("%w: schema %q field %q needs %d components, %s has %d",
				common.ErrConfiguration, s.Name(), f.Name, need, f.Encoding, f.Encoding.Components())
		}
	}
	return nil
}

var (
	staticFields  = map[string]int{FieldColor: 3, FieldOffset: 2, FieldScale: 1}
	dynamicFields = map[string]int{FieldScale: 2}
	vertexFields  = map[string]int{FieldPosition: 2, FieldColor: 3}
)

// StaticSource returns the FieldSource reading color, offset and scale from a pool.
// Color fields with four components receive the object's alpha.
//
// Parameters:
//   - p: the object pool
//
// Returns:
//   - FieldSource: the source
func StaticSource(p object_pool.Pool) FieldSource {
	return func(slot int, f Field, dst []float32) error {
		o := p.Object(slot)
		switch f.Name {
		case FieldColor:
			copy(dst, o.Color[:])
		case FieldOffset:
			copy(dst, o.Offset[:])
		case FieldScale:
			dst[0] = o.Scale
		}
		return nil
	}
}

// DynamicSource returns the FieldSource reading the per-frame scale vectors.
//
// Parameters:
//   - values: one scale vector per slot
//
// Returns:
//   - FieldSource: the source
func DynamicSource(values [][2]float32) FieldSource {
	return func(slot int, f Field, dst []float32) error {
		copy(dst, values[slot][:])
		return nil
	}
}

// VertexSource returns the FieldSource reading mesh vertex positions and colors.
// Color fields with four components get alpha 1.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - FieldSource: the source
func VertexSource(m mesh.Mesh) FieldSource {
	return func(slot int, f Field, dst []float32) error {
		v := m.Vertices[slot]
		switch f.Name {
		case FieldPosition:
			copy(dst, v.Position[:])
		case FieldColor:
			n := copy(dst, v.Color[:])
			if n < len(dst) {
				dst[n] = 1
			}
		}
		return nil
	}
}

// PackStatic packs one slot per pool object. Recognized fields are color, offset and scale.
//
// Parameters:
//   - p: the object pool
//   - s: the static slot layout
//
// Returns:
//   - []byte: Count()*Stride() bytes, slot i holding object i
//   - error: ErrConfiguration if s has a field the pool cannot supply
func PackStatic(p object_pool.Pool, s Schema) ([]byte, error) {
	if err := checkFields(s, staticFields); err != nil {
		return nil, err
	}
	return Pack(s, p.Count(), StaticSource(p))
}

// PackDynamic packs one aspect-corrected scale vector per slot into a new buffer.
//
// Parameters:
//   - values: the output of Pool.ComputeDynamic
//   - s: the dynamic slot layout, whose only field is scale
//
// Returns:
//   - []byte: len(values)*Stride() bytes
//   - error: ErrConfiguration if s has a field other than scale
func PackDynamic(values [][2]float32, s Schema) ([]byte, error) {
	if err := checkFields(s, dynamicFields); err != nil {
		return nil, err
	}
	return Pack(s, len(values), DynamicSource(values))
}

// PackDynamicInto is PackDynamic writing into an existing buffer, with no per-slot allocation.
//
// Parameters:
//   - dst: destination, at least len(values)*Stride() bytes
//   - values: the output of Pool.ComputeDynamic
//   - s: the dynamic slot layout
//
// Returns:
//   - error: ErrConfiguration for an unsupported field, ErrInvalidParameter if dst is too small
func PackDynamicInto(dst []byte, values [][2]float32, s Schema) error {
	if err := checkFields(s, dynamicFields); err != nil {
		return err
	}
	return PackInto(dst, s, len(values), DynamicSource(values))
}

// PackVertices packs one slot per mesh vertex. Recognized fields are position and color.
//
// Parameters:
//   - m: the mesh
//   - s: the vertex layout
//
// Returns:
//   - []byte: VertexCount()*Stride() bytes
//   - error: ErrConfiguration if s has a field the mesh cannot supply
func PackVertices(m mesh.Mesh, s Schema) ([]byte, error) {
	if err := checkFields(s, vertexFields); err != nil {
		return nil, err
	}
	return Pack(s, m.VertexCount(), VertexSource(m))
}

// CheckStaticSchema reports whether PackStatic can fill every field of s.
func CheckStaticSchema(s Schema) error {
	return checkFields(s, staticFields)
}

// CheckDynamicSchema reports whether PackDynamic can fill every field of s.
func CheckDynamicSchema(s Schema) error {
	return checkFields(s, dynamicFields)
}

// CheckVertexSchema reports whether PackVertices can fill every field of s.
func CheckVertexSchema(s Schema) error {
	return checkFields(s, vertexFields)
}
