// Package telemetry times the stages of each timestep over a rolling window.
package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/particlelife/internal/compute"
	"gonum.org/v1/gonum/stat"
)

// PerfSample holds the timing of one timestep.
type PerfSample struct {
	Step   time.Duration
	Stages map[compute.Stage]time.Duration
}

// PerfCollector tracks stage durations over the last windowSize timesteps.
// It satisfies pipeline.StageTimer. Safe for concurrent use so a renderer
// can read Stats while the simulation runs.
type PerfCollector struct {
	mu          sync.Mutex
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int
	current     map[compute.Stage]time.Duration
	stepStart   time.Time
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		current:    make(map[compute.Stage]time.Duration),
	}
}

// StartStep begins timing a timestep.
func (p *PerfCollector) StartStep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stepStart = time.Now()
	p.current = make(map[compute.Stage]time.Duration)
}

// ObserveStage adds the time spent in one stage of the current step.
func (p *PerfCollector) ObserveStage(stage compute.Stage, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current[stage] += d
}

// EndStep records the current step into the window.
func (p *PerfCollector) EndStep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.samples[p.writeIndex] = PerfSample{
		Step:   time.Since(p.stepStart),
		Stages: p.current,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgStep      time.Duration
	MinStep      time.Duration
	MaxStep      time.Duration
	StdDevStep   time.Duration
	StageAvg     map[compute.Stage]time.Duration
	StagePct     map[compute.Stage]float64
	StepsPerSec  float64
	WindowLength int
}

// Stats computes statistics over the recorded window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := PerfStats{
		StageAvg:     make(map[compute.Stage]time.Duration),
		StagePct:     make(map[compute.Stage]float64),
		WindowLength: p.sampleCount,
	}
	if p.sampleCount == 0 {
		return s
	}

	steps := make([]float64, p.sampleCount)
	sums := make(map[compute.Stage]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		sample := p.samples[i]
		steps[i] = float64(sample.Step)
		if i == 0 || sample.Step < s.MinStep {
			s.MinStep = sample.Step
		}
		if sample.Step > s.MaxStep {
			s.MaxStep = sample.Step
		}
		for stage, d := range sample.Stages {
			sums[stage] += d
		}
	}

	mean, std := stat.MeanStdDev(steps, nil)
	if p.sampleCount < 2 {
		std = 0
	}
	s.AvgStep = time.Duration(mean)
	s.StdDevStep = time.Duration(std)

	for stage, sum := range sums {
		avg := sum / time.Duration(p.sampleCount)
		s.StageAvg[stage] = avg
		if s.AvgStep > 0 {
			s.StagePct[stage] = float64(avg) / float64(s.AvgStep) * 100
		}
	}
	if s.AvgStep > 0 {
		s.StepsPerSec = float64(time.Second) / float64(s.AvgStep)
	}
	return s
}

// LogStats logs the statistics at info level.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_step_us", s.AvgStep.Microseconds(),
		"min_step_us", s.MinStep.Microseconds(),
		"max_step_us", s.MaxStep.Microseconds(),
		"steps_per_sec", int(s.StepsPerSec),
	}
	for _, stage := range []compute.Stage{compute.StageSetupTiles, compute.StageSort, compute.StageForces, compute.StageIntegrate} {
		if pct, ok := s.StagePct[stage]; ok {
			attrs = append(attrs, stage.String()+"_pct", int(pct))
		}
	}
	logger.Info("perf", attrs...)
}

// PerfRow is one perf.csv record.
type PerfRow struct {
	Step        int     `csv:"step"`
	AvgStepUS   int64   `csv:"avg_step_us"`
	MinStepUS   int64   `csv:"min_step_us"`
	MaxStepUS   int64   `csv:"max_step_us"`
	SetupUS     int64   `csv:"setup_tiles_us"`
	SortUS      int64   `csv:"sort_us"`
	ForcesUS    int64   `csv:"forces_us"`
	IntegrateUS int64   `csv:"integrate_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
}

// Row flattens the statistics for CSV output at the given step.
func (s PerfStats) Row(step int) PerfRow {
	return PerfRow{
		Step:        step,
		AvgStepUS:   s.AvgStep.Microseconds(),
		MinStepUS:   s.MinStep.Microseconds(),
		MaxStepUS:   s.MaxStep.Microseconds(),
		SetupUS:     s.StageAvg[compute.StageSetupTiles].Microseconds(),
		SortUS:      s.StageAvg[compute.StageSort].Microseconds(),
		ForcesUS:    s.StageAvg[compute.StageForces].Microseconds(),
		IntegrateUS: s.StageAvg[compute.StageIntegrate].Microseconds(),
		StepsPerSec: s.StepsPerSec,
	}
}
