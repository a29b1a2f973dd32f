// Package metrics holds observers that summarize the particle state once
// per timestep.
package metrics

import (
	"math"

	"github.com/san-kum/particlelife/internal/dynamo"
)

// KineticEnergy tracks the total kinetic energy of unit-mass particles.
// Value is the mean over all observed steps.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
	last    float64
	peak    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(ps []dynamo.Particle, w dynamo.World, t float64) {
	e.last = Kinetic(ps)
	e.peak = math.Max(e.peak, e.last)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last returns the energy of the most recent step.
func (e *KineticEnergy) Last() float64 { return e.last }

// Peak returns the largest energy seen.
func (e *KineticEnergy) Peak() float64 { return e.peak }

func (e *KineticEnergy) Reset() {
	e.samples = 0
	e.total = 0
	e.last = 0
	e.peak = 0
}

// Kinetic returns the sum of |v|^2 / 2 over ps.
func Kinetic(ps []dynamo.Particle) float64 {
	var ke float64
	for i := range ps {
		v := ps[i].Vel
		ke += 0.5 * (v.X*v.X + v.Y*v.Y)
	}
	return ke
}
