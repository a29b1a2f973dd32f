package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/metrics"
	"github.com/san-kum/particlelife/internal/sim"
)

// ParameterSweep varies one scenario parameter over evenly spaced values.
type ParameterSweep struct {
	Param    string
	Min      float64
	Max      float64
	NumSteps int
	Steps    int
}

// SweepResult holds the observables at the end of one sweep point.
type SweepResult struct {
	ParamValue    float64
	KineticEnergy float64
	MeanSpeed     float64
	Containment   float64
}

// SweepParams lists the parameter names a sweep can vary.
func SweepParams() []string {
	return []string{
		"friction", "delta_time",
		"attraction_mean", "attraction_stddev",
		"min_radius0", "min_radius1", "max_radius0", "max_radius1",
	}
}

func sweepTarget(cfg *config.Config, name string) (*float64, error) {
	switch name {
	case "friction":
		return &cfg.World.Friction, nil
	case "delta_time":
		return &cfg.World.DeltaTime, nil
	case "attraction_mean":
		return &cfg.Randomize.AttractionMean, nil
	case "attraction_stddev":
		return &cfg.Randomize.AttractionStddev, nil
	case "min_radius0":
		return &cfg.Randomize.MinRadius0, nil
	case "min_radius1":
		return &cfg.Randomize.MinRadius1, nil
	case "max_radius0":
		return &cfg.Randomize.MaxRadius0, nil
	case "max_radius1":
		return &cfg.Randomize.MaxRadius1, nil
	}
	return nil, dynamo.Invalidf("cannot sweep %q (have %v)", name, SweepParams())
}

// RunSweep runs one simulation per parameter value from the same seed.
func RunSweep(ctx context.Context, base *config.Config, sweep ParameterSweep, backend compute.Backend, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, dynamo.Invalidf("sweep needs at least 2 points, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = slog.Default()
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		cfg := *base
		target, err := sweepTarget(&cfg, sweep.Param)
		if err != nil {
			return nil, err
		}
		value := sweep.Min + float64(i)*paramStep
		*target = value

		energy, speed, contained := metrics.NewKineticEnergy(), metrics.NewSpeed(), metrics.NewContainment()
		s, err := sim.New(&cfg,
			sim.WithBackend(backend),
			sim.WithLogger(quiet),
			sim.WithMetric(energy),
			sim.WithMetric(speed),
			sim.WithMetric(contained),
		)
		if err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.Param, value, err)
		}
		if _, err := s.Run(ctx, sweep.Steps); err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.Param, value, err)
		}

		results = append(results, SweepResult{
			ParamValue:    value,
			KineticEnergy: energy.Last(),
			MeanSpeed:     speed.Value(),
			Containment:   contained.Value(),
		})
		logger.Info("sweep point", "index", i+1, "of", sweep.NumSteps, sweep.Param, value, "kinetic_energy", energy.Last())
	}
	return results, nil
}
