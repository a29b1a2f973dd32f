// Package dynamo provides the core records shared by every stage of a
// particle-life simulation.
//
// The package defines plain fixed-layout records and nothing that depends on
// how a backend lays them out in memory:
//
//   - [Particle]: position, velocity and type index
//   - [ParticleType]: display color of a type
//   - [Interaction]: attraction and radius band of an ordered type pair
//   - [World]: bounds and integration settings shared by all stages
//
// # Errors
//
// Configuration problems are reported with [ErrInvalidConfig] or
// [ErrDimensionMismatch] before any buffer is allocated. Failures inside a
// timestep are wrapped in a [StepError] naming the stage that failed.
//
// # Work Splitting
//
// [Split] cuts a range of work items into contiguous chunks for backends
// that fan work out across goroutines.
package dynamo
