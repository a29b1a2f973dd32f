package metrics

import (
	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Speed reports the mean particle speed of the latest step along with its
// spread across particles.
type Speed struct {
	name   string
	speeds []float64
	mean   float64
	stddev float64
}

func NewSpeed() *Speed {
	return &Speed{name: "mean_speed"}
}

func (s *Speed) Name() string { return s.name }

func (s *Speed) Observe(ps []dynamo.Particle, w dynamo.World, t float64) {
	s.speeds = s.speeds[:0]
	for i := range ps {
		s.speeds = append(s.speeds, r2.Norm(ps[i].Vel))
	}
	if len(s.speeds) == 0 {
		s.mean, s.stddev = 0, 0
		return
	}
	s.mean, s.stddev = stat.MeanStdDev(s.speeds, nil)
}

func (s *Speed) Value() float64 { return s.mean }

// StdDev returns the spread of speeds in the latest step.
func (s *Speed) StdDev() float64 { return s.stddev }

func (s *Speed) Reset() {
	s.speeds = s.speeds[:0]
	s.mean, s.stddev = 0, 0
}
