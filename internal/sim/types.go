package sim

import (
	"time"

	"github.com/san-kum/particlelife/internal/dynamo"
)

// Metric summarizes the particle state once per timestep.
type Metric interface {
	Name() string
	Observe(ps []dynamo.Particle, w dynamo.World, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every timestep. The particle slice is only
// valid for the duration of the call.
type Observer interface {
	OnStep(ps []dynamo.Particle, w dynamo.World, t float64)
}

// Frame is a view of the simulation between timesteps.
type Frame struct {
	Particles []dynamo.Particle
	Types     []dynamo.ParticleType
	World     dynamo.World
	Steps     int
	Time      float64
}

// Result summarizes a Run.
type Result struct {
	Seed    uint64
	Steps   int
	SimTime float64
	Wall    time.Duration
	Metrics map[string]float64
}

// StepsPerSecond returns the wall-clock throughput of the run.
func (r *Result) StepsPerSecond() float64 {
	if r.Wall <= 0 {
		return 0
	}
	return float64(r.Steps) / r.Wall.Seconds()
}
