package mesh

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-rings/common"
)

// Vertex is a single ring vertex: a 2D position in model space and a per-vertex RGB color.
// Its GPU byte layout is decided by the layout.Schema it is packed with.
type Vertex struct {
	Position common.Vec2
	Color    common.RGB
}

// Mesh is an immutable 2D triangle mesh shared by every instance of a draw.
// Indices is nil for non-indexed meshes, in which case every three vertices form a triangle.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Indexed reports whether the mesh carries an index buffer.
func (m Mesh) Indexed() bool {
	return m.Indices != nil
}

// VertexCount returns the number of vertices.
func (m Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IndexCount returns the number of indices, or zero for a non-indexed mesh.
func (m Mesh) IndexCount() int {
	return len(m.Indices)
}

// DrawCount returns the element count a draw call must cover: the index count for
// indexed meshes, the vertex count otherwise.
func (m Mesh) DrawCount() int {
	if m.Indexed() {
		return len(m.Indices)
	}
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles the mesh describes.
func (m Mesh) TriangleCount() int {
	return m.DrawCount() / 3
}

// IndexData encodes the indices as little-endian uint32 values for an index buffer.
//
// Returns:
//   - []byte: the encoded indices, or nil for a non-indexed mesh
func (m Mesh) IndexData() []byte {
	if !m.Indexed() {
		return nil
	}
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
