package mesh

import (
	"math"

	"github.com/Carmen-Shannon/oxy-rings/common"
)

// ringParams holds the optional ring generation parameters.
type ringParams struct {
	startAngle float32
	endAngle   float32
	indexed    bool
	outer      common.RGB
	inner      common.RGB
}

func defaultRingParams() ringParams {
	return ringParams{
		startAngle: 0,
		endAngle:   2 * math.Pi,
		outer:      common.White,
		inner:      common.White,
	}
}

// RingBuilderOption is a functional option applied to GenerateRing.
type RingBuilderOption func(*ringParams)

// WithStartAngle sets the angle in radians where the ring starts. Defaults to 0.
//
// Parameters:
//   - angle: the start angle in radians
//
// Returns:
//   - RingBuilderOption: option function to apply
func WithStartAngle(angle float32) RingBuilderOption {
	return func(p *ringParams) {
		p.startAngle = angle
	}
}

// WithEndAngle sets the angle in radians where the ring ends. Defaults to 2π.
//
// Parameters:
//   - angle: the end angle in radians
//
// Returns:
//   - RingBuilderOption: option function to apply
func WithEndAngle(angle float32) RingBuilderOption {
	return func(p *ringParams) {
		p.endAngle = angle
	}
}

// WithIndexed selects the indexed topology, which shares vertices between neighbouring wedges
// and produces an index buffer. The default is the non-indexed two-triangles-per-wedge layout.
//
// Parameters:
//   - indexed: true to emit an index buffer
//
// Returns:
//   - RingBuilderOption: option function to apply
func WithIndexed(indexed bool) RingBuilderOption {
	return func(p *ringParams) {
		p.indexed = indexed
	}
}

// WithColorGradient assigns outer to every vertex on the outer radius and inner to every vertex
// on the inner radius, giving a radial shading once the rasterizer interpolates between them.
//
// Parameters:
//   - outer: color of the outer edge
//   - inner: color of the inner edge
//
// Returns:
//   - RingBuilderOption: option function to apply
func WithColorGradient(outer, inner common.RGB) RingBuilderOption {
	return func(p *ringParams) {
		p.outer = outer
		p.inner = inner
	}
}
