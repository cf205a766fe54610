package object_pool

import "math/rand/v2"

// PoolBuilderOption is a functional option applied to a pool during construction via NewPool.
type PoolBuilderOption func(*pool)

// WithRandomSource sets the random source used to draw the static attributes of every object.
// Tests inject a deterministic source to make pool creation reproducible.
//
// Parameters:
//   - src: the random source to draw from
//
// Returns:
//   - PoolBuilderOption: option function to apply
func WithRandomSource(src RandomSource) PoolBuilderOption {
	return func(p *pool) {
		p.src = src
	}
}

// WithSeed seeds a PCG random source. Equal seeds produce identical pools.
//
// Parameters:
//   - seed: the seed value
//
// Returns:
//   - PoolBuilderOption: option function to apply
func WithSeed(seed uint64) PoolBuilderOption {
	return func(p *pool) {
		p.src = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}
