// Package rng provides a small deterministic pseudo-random stream used to
// build scenarios. It is a permuted congruential generator over a single
// 64-bit state, so the same seed always reproduces the same sequence.
package rng

import "math"

const multiplier = 6364136223846793005

// RNG is a 64-bit state PCG-style generator. The zero value is usable but
// New should be preferred so seeds map onto odd states.
type RNG struct {
	state uint64
}

// New seeds a generator. The first output is discarded to mix the seed.
func New(seed uint64) *RNG {
	r := &RNG{state: 2*seed + 1}
	r.Uint32()
	return r
}

// FromState restores a generator from a value previously returned by State.
func FromState(state uint64) *RNG {
	return &RNG{state: state}
}

// State returns the raw generator state.
func (r *RNG) State() uint64 { return r.state }

// Uint32 returns a uniform value in [0, MaxUint32].
func (r *RNG) Uint32() uint32 {
	x := r.state
	count := uint32(x >> 61)
	r.state = x * multiplier
	x ^= x >> 22
	return uint32(x >> (22 + count))
}

// Int returns a uniform integer in [min, max).
func (r *RNG) Int(min, max int) int {
	m := uint64(r.Uint32()) * uint64(max-min)
	return min + int(m>>32)
}

// Uniform returns a uniform float in [min, max].
func (r *RNG) Uniform(min, max float64) float64 {
	f := float64(r.Uint32()) / math.MaxUint32
	return min + f*(max-min)
}

// Gaussian draws from N(mean, stddev^2) using the Marsaglia polar method.
func (r *RNG) Gaussian(mean, stddev float64) float64 {
	var u, v, s float64
	for {
		u = r.Uniform(-1, 1)
		v = r.Uniform(-1, 1)
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	s = math.Sqrt(-2 * math.Log(s) / s)
	return mean + stddev*u*s
}
