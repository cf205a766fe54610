package object_pool

import (
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-rings/common"
)

// Distribution bounds for the static object attributes.
const (
	OffsetMin = -0.9
	OffsetMax = 0.9
	ScaleMin  = 0.2
	ScaleMax  = 0.5
)

// RandomSource yields uniform samples in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float32() float32
}

// Object is a single logical instance. Every field is assigned once at creation.
type Object struct {
	// Color is the RGBA color, RGB uniform in [0, 1] and alpha fixed at 1.
	Color common.Color
	// Offset is the translation in normalized device coordinates.
	Offset common.Vec2
	// Scale is the uniform scale before aspect correction.
	Scale float32
}

// pool is the implementation of the Pool interface.
type pool struct {
	src     RandomSource
	objects []Object
}

// Pool holds a fixed number of objects whose indices are stable for the lifetime of the pool.
// Object i always maps to slot i of every packed buffer and to instance index i of a draw.
type Pool interface {
	// Count returns the number of objects.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Object returns the object at index i.
	//
	// Parameters:
	//   - i: the object index in [0, Count())
	//
	// Returns:
	//   - Object: a copy of the object
	Object(i int) Object

	// Objects returns a copy of every object in index order.
	//
	// Returns:
	//   - []Object: the objects
	Objects() []Object

	// ComputeDynamic returns the aspect-corrected scale (scale/aspect, scale) of every object.
	// It is a pure function of the pool and the aspect ratio.
	//
	// Parameters:
	//   - aspect: the current surface width/height
	//
	// Returns:
	//   - [][2]float32: one scale vector per object, in index order
	ComputeDynamic(aspect float32) [][2]float32

	// ComputeDynamicInto writes the same values as ComputeDynamic into dst without allocating.
	// dst must hold at least Count() entries.
	//
	// Parameters:
	//   - dst: destination slice
	//   - aspect: the current surface width/height
	ComputeDynamicInto(dst [][2]float32, aspect float32)
}

var _ Pool = &pool{}

// NewPool allocates n objects and draws their static attributes from the configured random source.
// Per object the draw order is red, green, blue, offset x, offset y, scale.
//
// Parameters:
//   - n: number of objects, at least 1
//   - options: functional options (random source, seed)
//
// Returns:
//   - Pool: the populated pool
//   - error: ErrInvalidParameter if n < 1
func NewPool(n int, options ...PoolBuilderOption) (Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: object count must be >= 1, got %d", common.ErrInvalidParameter, n)
	}

	p := &pool{}
	for _, opt := range options {
		opt(p)
	}
	if p.src == nil {
		p.src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	p.objects = make([]Object, n)
	for i := range p.objects {
		p.objects[i] = Object{
			Color: common.Color{p.src.Float32(), p.src.Float32(), p.src.Float32(), 1},
			Offset: common.Vec2{
				common.Rand(p.src.Float32(), OffsetMin, OffsetMax),
				common.Rand(p.src.Float32(), OffsetMin, OffsetMax),
			},
			Scale: common.Rand(p.src.Float32(), ScaleMin, ScaleMax),
		}
	}

	common.Logger().Debug("object pool created", "objects", n)
	return p, nil
}

func (p *pool) Count() int {
	return len(p.objects)
}

func (p *pool) Object(i int) Object {
	return p.objects[i]
}

func (p *pool) Objects() []Object {
	out := make([]Object, len(p.objects))
	copy(out, p.objects)
	return out
}

func (p *pool) ComputeDynamic(aspect float32) [][2]float32 {
	out := make([][2]float32, len(p.objects))
	p.ComputeDynamicInto(out, aspect)
	return out
}

func (p *pool) ComputeDynamicInto(dst [][2]float32, aspect float32) {
	for i, o := range p.objects {
		dst[i] = [2]float32{o.Scale / aspect, o.Scale}
	}
}
