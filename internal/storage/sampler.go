package storage

import (
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/metrics"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Sample is one samples.csv row.
type Sample struct {
	Step          int     `csv:"step"`
	Time          float64 `csv:"time"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanSpeed     float64 `csv:"mean_speed"`
	SpeedStdDev   float64 `csv:"speed_stddev"`
	Escaped       int     `csv:"escaped"`
}

// Sampler records a Sample every few steps. It satisfies sim.Observer.
type Sampler struct {
	every   int
	step    int
	speeds  []float64
	samples []Sample
}

// NewSampler samples every n-th step; n below 1 samples every step.
func NewSampler(every int) *Sampler {
	if every < 1 {
		every = 1
	}
	return &Sampler{every: every}
}

func (s *Sampler) OnStep(ps []dynamo.Particle, w dynamo.World, t float64) {
	s.step++
	if s.step%s.every != 0 {
		return
	}

	sample := Sample{Step: s.step, Time: t, KineticEnergy: metrics.Kinetic(ps)}
	s.speeds = s.speeds[:0]
	for i := range ps {
		s.speeds = append(s.speeds, r2.Norm(ps[i].Vel))
		p := ps[i].Pos
		if !(p.X >= 0 && p.X <= w.Width && p.Y >= 0 && p.Y <= w.Height) {
			sample.Escaped++
		}
	}
	if len(s.speeds) > 1 {
		sample.MeanSpeed, sample.SpeedStdDev = stat.MeanStdDev(s.speeds, nil)
	} else if len(s.speeds) == 1 {
		sample.MeanSpeed = s.speeds[0]
	}
	s.samples = append(s.samples, sample)
}

// Samples returns everything recorded so far.
func (s *Sampler) Samples() []Sample { return s.samples }

// Energies returns the kinetic energy column, for plotting.
func (s *Sampler) Energies() []float64 {
	out := make([]float64, len(s.samples))
	for i, sample := range s.samples {
		out[i] = sample.KineticEnergy
	}
	return out
}
