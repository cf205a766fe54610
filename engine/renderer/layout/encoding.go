package layout

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// Encoding identifies how a field's float components are laid out in bytes.
type Encoding int

const (
	// Float32 is a single little-endian IEEE-754 float.
	Float32 Encoding = iota
	// Float32x2 is two consecutive floats.
	Float32x2
	// Float32x3 is three consecutive floats.
	Float32x3
	// Float32x4 is four consecutive floats.
	Float32x4
	// Unorm8x4 is four bytes, each round(clamp(v, 0, 1) * 255).
	Unorm8x4
)

// Size returns the number of bytes a value of this encoding occupies.
//
// Returns:
//   - uint64: the byte size, or 0 for an unknown encoding
func (e Encoding) Size() uint64 {
	switch e {
	case Float32:
		return 4
	case Float32x2:
		return 8
	case Float32x3:
		return 12
	case Float32x4:
		return 16
	case Unorm8x4:
		return 4
	default:
		return 0
	}
}

// Components returns the number of float components carried by this encoding.
//
// Returns:
//   - int: the component count, or 0 for an unknown encoding
func (e Encoding) Components() int {
	switch e {
	case Float32:
		return 1
	case Float32x2:
		return 2
	case Float32x3:
		return 3
	case Float32x4, Unorm8x4:
		return 4
	default:
		return 0
	}
}

// VertexFormat returns the vertex attribute format that reads this encoding back in a shader.
//
// Returns:
//   - wgpu.VertexFormat: the matching vertex format
func (e Encoding) VertexFormat() wgpu.VertexFormat {
	switch e {
	case Float32:
		return wgpu.VertexFormatFloat32
	case Float32x2:
		return wgpu.VertexFormatFloat32x2
	case Float32x3:
		return wgpu.VertexFormatFloat32x3
	case Float32x4:
		return wgpu.VertexFormatFloat32x4
	case Unorm8x4:
		return wgpu.VertexFormatUnorm8x4
	default:
		return wgpu.VertexFormatUndefined
	}
}

func (e Encoding) String() string {
	switch e {
	case Float32:
		return "float32"
	case Float32x2:
		return "float32x2"
	case Float32x3:
		return "float32x3"
	case Float32x4:
		return "float32x4"
	case Unorm8x4:
		return "unorm8x4"
	default:
		return "unknown"
	}
}

func (e Encoding) valid() bool {
	return e.Size() != 0
}

// encode writes values into dst. len(values) must equal Components() and len(dst) must be at least Size().
func (e Encoding) encode(dst []byte, values []float32) {
	if e == Unorm8x4 {
		for i, v := range values {
			dst[i] = unorm8(v)
		}
		return
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// decode reads Components() values from src.
func (e Encoding) decode(src []byte) []float32 {
	out := make([]float32, e.Components())
	if e == Unorm8x4 {
		for i := range out {
			out[i] = float32(src[i]) / 255
		}
		return out
	}
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out
}

// unorm8 quantizes v to a normalized byte. NaN maps to 0.
func unorm8(v float32) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
