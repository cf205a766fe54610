package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/chewxy/math32"
)

// RingN returns the vertex and index counts GenerateRing produces for the given subdivision count.
//
// Parameters:
//   - subdivisions: number of angular wedges
//   - indexed: whether the indexed topology is used
//
// Returns:
//   - numVertex: number of vertices
//   - nIndex: number of indices (zero when not indexed)
func RingN(subdivisions int, indexed bool) (numVertex, nIndex int) {
	if indexed {
		return (subdivisions + 1) * 2, subdivisions * 6
	}
	return subdivisions * 6, 0
}

// GenerateRing builds an annulus between innerRadius and radius, split into subdivisions
// equal wedges over [start, end). Each wedge is two triangles. The result is a pure function of
// the inputs.
//
// Non-indexed layout, per wedge i with boundary angles a1 and a2:
//
//	outer(a1) outer(a2) inner(a1)   inner(a1) outer(a2) inner(a2)
//
// Indexed layout stores outer/inner pairs for each of the subdivisions+1 boundaries, so
// vertex 2k is outer and 2k+1 is inner at boundary k.
//
// Parameters:
//   - radius: outer radius
//   - innerRadius: inner radius, 0 for a filled disc
//   - subdivisions: number of wedges, at least 1
//   - options: optional angle range, topology and color gradient
//
// Returns:
//   - Mesh: the generated mesh
//   - error: ErrInvalidParameter for out-of-domain arguments
func GenerateRing(radius, innerRadius float32, subdivisions int, options ...RingBuilderOption) (Mesh, error) {
	p := defaultRingParams()
	for _, opt := range options {
		opt(&p)
	}

	if subdivisions < 1 {
		return Mesh{}, fmt.Errorf("%w: ring subdivisions must be >= 1, got %d", common.ErrInvalidParameter, subdivisions)
	}
	if !common.IsFinite(radius) || !common.IsFinite(innerRadius) || radius < 0 || innerRadius < 0 {
		return Mesh{}, fmt.Errorf("%w: ring radii must be finite and non-negative, got %v/%v", common.ErrInvalidParameter, radius, innerRadius)
	}
	if innerRadius > radius {
		return Mesh{}, fmt.Errorf("%w: inner radius %v exceeds radius %v", common.ErrInvalidParameter, innerRadius, radius)
	}
	if !common.IsFinite(p.startAngle) || !common.IsFinite(p.endAngle) || p.startAngle == p.endAngle {
		return Mesh{}, fmt.Errorf("%w: ring angle range [%v, %v) is empty", common.ErrInvalidParameter, p.startAngle, p.endAngle)
	}

	if p.indexed {
		return indexedRing(radius, innerRadius, subdivisions, p), nil
	}
	return wedgeRing(radius, innerRadius, subdivisions, p), nil
}

func angleAt(p ringParams, subdivisions, i int) float32 {
	return p.startAngle + float32(i)*(p.endAngle-p.startAngle)/float32(subdivisions)
}

func wedgeRing(radius, innerRadius float32, subdivisions int, p ringParams) Mesh {
	numVertex, _ := RingN(subdivisions, false)
	vertices := make([]Vertex, 0, numVertex)

	add := func(c, s, r float32, color common.RGB) {
		vertices = append(vertices, Vertex{Position: common.Vec2{c * r, s * r}, Color: color})
	}

	// 0--1 4
	// | / /|
	// |/ / |
	// 2 3--5
	for i := range subdivisions {
		a1 := angleAt(p, subdivisions, i)
		a2 := angleAt(p, subdivisions, i+1)
		c1, s1 := math32.Cos(a1), math32.Sin(a1)
		c2, s2 := math32.Cos(a2), math32.Sin(a2)

		add(c1, s1, radius, p.outer)
		add(c2, s2, radius, p.outer)
		add(c1, s1, innerRadius, p.inner)

		add(c1, s1, innerRadius, p.inner)
		add(c2, s2, radius, p.outer)
		add(c2, s2, innerRadius, p.inner)
	}
	return Mesh{Vertices: vertices}
}

func indexedRing(radius, innerRadius float32, subdivisions int, p ringParams) Mesh {
	numVertex, nIndex := RingN(subdivisions, true)
	vertices := make([]Vertex, 0, numVertex)
	for i := 0; i <= subdivisions; i++ {
		a := angleAt(p, subdivisions, i)
		c, s := math32.Cos(a), math32.Sin(a)
		vertices = append(vertices,
			Vertex{Position: common.Vec2{c * radius, s * radius}, Color: p.outer},
			Vertex{Position: common.Vec2{c * innerRadius, s * innerRadius}, Color: p.inner},
		)
	}

	// 0---2---4---...
	// |  /|  /|
	// | / | / |
	// |/  |/  |
	// 1---3---5---...
	indices := make([]uint32, 0, nIndex)
	for i := range subdivisions {
		outer1 := uint32(i * 2)
		inner1 := outer1 + 1
		outer2 := outer1 + 2
		inner2 := outer1 + 3
		indices = append(indices,
			outer1, outer2, inner1,
			inner1, outer2, inner2,
		)
	}
	return Mesh{Vertices: vertices, Indices: indices}
}
