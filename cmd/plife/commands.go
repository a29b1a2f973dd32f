package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/particlelife/internal/analysis"
	"github.com/san-kum/particlelife/internal/automation"
	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/export"
	"github.com/san-kum/particlelife/internal/gui"
	"github.com/san-kum/particlelife/internal/metrics"
	"github.com/san-kum/particlelife/internal/sim"
	"github.com/san-kum/particlelife/internal/storage"
	"github.com/san-kum/particlelife/internal/telemetry"
	"github.com/san-kum/particlelife/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	if numRuns > 1 {
		return runEnsemble(cmd)
	}

	sampler := storage.NewSampler(sampleEvery)
	energy, speed, contained := metrics.NewKineticEnergy(), metrics.NewSpeed(), metrics.NewContainment()
	cfg, s, err := newSimulator(cmd,
		sim.WithObserver(sampler),
		sim.WithMetric(energy),
		sim.WithMetric(speed),
		sim.WithMetric(contained),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx := cmd.Context()
	var perf []telemetry.PerfRow
	start := time.Now()
	runErr := s.RunWithCallback(ctx, steps, func(step int) bool {
		if step%max(sampleEvery, 1) == 0 {
			perf = append(perf, s.Perf().Row(step))
		}
		return true
	})
	wall := time.Since(start)
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}

	world := s.World()
	meta := storage.RunMetadata{
		Preset:      cfg.Preset,
		Seed:        s.Seed(),
		Types:       cfg.Universe.Types,
		Particles:   cfg.Universe.Particles,
		Width:       world.Width,
		Height:      world.Height,
		Wrap:        world.Wrap,
		Friction:    world.Friction,
		DeltaTime:   world.DeltaTime,
		Kernel:      world.Kernel.String(),
		Backend:     s.BackendName(),
		Steps:       s.Steps(),
		SimTime:     s.Time(),
		WallSeconds: wall.Seconds(),
		Metrics:     s.MetricValues(),
	}
	runID, err := st.Save(meta, sampler.Samples(), perf)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("steps: %d  sim time: %.1f  wall: %v  (%.1f steps/s)\n",
		meta.Steps, meta.SimTime, wall.Round(time.Millisecond), float64(meta.Steps)/wall.Seconds())
	fmt.Printf("kinetic energy: %.3f (peak %.3f)\n", energy.Last(), energy.Peak())
	fmt.Printf("mean speed: %.4f ± %.4f\n", speed.Value(), speed.StdDev())
	fmt.Printf("containment: %.3f\n", contained.Value())
	return nil
}

func runEnsemble(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ens := sim.NewEnsemble(cfg, numRuns, cfg.Seed, func() []sim.Metric {
		return []sim.Metric{metrics.NewKineticEnergy(), metrics.NewSpeed()}
	})
	if workers > 0 {
		ens.SetLimit(workers)
	}

	results, err := ens.Run(cmd.Context(), steps)
	if err != nil {
		return err
	}

	energies := make([]float64, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tKINETIC\tSPEED\tSTEPS/SEC")
	for i, r := range results {
		energies[i] = r.Metrics["kinetic_energy"]
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.4f\t%.1f\n",
			r.Seed, r.Steps, r.Metrics["kinetic_energy"], r.Metrics["mean_speed"], r.StepsPerSecond())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	mean, std := stat.MeanStdDev(energies, nil)
	fmt.Printf("\nkinetic energy over %d seeds: %.3f ± %.3f\n", len(results), mean, std)
	return nil
}

// benchSimulation times a run from seed 42 regardless of other settings.
func benchSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Seed = config.DefaultSeed

	perf := telemetry.NewPerfCollector(steps)
	s, err := sim.New(cfg, sim.WithLogger(logger), sim.WithPerf(perf))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("benchmarking %d particles, %d types, %d steps on %s\n\n",
		cfg.Universe.Particles, cfg.Universe.Types, steps, s.BackendName())

	start := time.Now()
	result, err := s.Run(cmd.Context(), steps)
	if err != nil {
		return err
	}
	total := time.Since(start)
	stats := perf.Stats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tTOTAL\tMEAN\tMIN\tMAX\tSTDDEV\tSTEPS/SEC")
	fmt.Fprintf(w, "%d\t%v\t%v\t%v\t%v\t%v\t%.1f\n",
		result.Steps,
		total.Round(time.Millisecond),
		(total / time.Duration(max(result.Steps, 1))).Round(time.Microsecond),
		stats.MinStep.Round(time.Microsecond),
		stats.MaxStep.Round(time.Microsecond),
		stats.StdDevStep.Round(time.Microsecond),
		result.StepsPerSecond(),
	)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tMEAN\tSHARE")
	for _, stage := range []compute.Stage{compute.StageSetupTiles, compute.StageSort, compute.StageForces, compute.StageIntegrate} {
		fmt.Fprintf(w, "%s\t%v\t%.1f%%\n", stage, stats.StageAvg[stage].Round(time.Microsecond), stats.StagePct[stage])
	}
	return w.Flush()
}

func printParams(cmd *cobra.Command, args []string) error {
	_, s, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.WriteParams(os.Stdout)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tFRICTION\tMEAN\tSTDDEV\tMIN R\tMAX R")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%c\t%s\t%.3f\t%.3f\t%.3f\t%g-%g\t%g-%g\n",
			p.Key, p.Name, p.Friction,
			p.Params.AttractionMean, p.Params.AttractionStddev,
			p.Params.MinRadius0, p.Params.MinRadius1,
			p.Params.MaxRadius0, p.Params.MaxRadius1,
		)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	_, s, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return viz.Run(cmd.Context(), s)
}

func runGUI(cmd *cobra.Command, args []string) error {
	_, s, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return gui.Run(cmd.Context(), s, logger)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSEED\tPARTICLES\tSTEPS\tBACKEND")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Particles,
			run.Steps,
			run.Backend,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("run %s has too few samples to plot", runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  types: %d  seed: %d\n", meta.Particles, meta.Types, meta.Seed)
	fmt.Printf("samples: %d\n\n", len(samples))

	energy := make([]float64, len(samples))
	speed := make([]float64, len(samples))
	for i, smp := range samples {
		energy[i] = smp.KineticEnergy
		speed[i] = smp.MeanSpeed
	}

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy", energy},
		{"mean speed", speed},
	} {
		fmt.Println(asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		))
		fmt.Println()
	}

	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.SeriesSVG(f, energy, 800, 300, "#00ff88"); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 4 {
		return fmt.Errorf("run %s has too few samples to analyze", args[0])
	}

	times := make([]float64, len(samples))
	energy := make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.Time
		energy[i] = smp.KineticEnergy
	}

	sum, err := analysis.Summarize(times, energy, 0.05)
	if err != nil {
		return err
	}
	fmt.Printf("kinetic energy: mean %.3f  stddev %.3f  range [%.3f, %.3f]\n", sum.Mean, sum.StdDev, sum.Min, sum.Max)
	fmt.Printf("trend: %+.5f per unit time\n", sum.Slope)
	if math.IsNaN(sum.Settled) {
		fmt.Println("settled: never")
	} else {
		fmt.Printf("settled: t=%.1f\n", sum.Settled)
	}

	osc, ok, err := analysis.DominantOscillation(energy, times[1]-times[0])
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("dominant oscillation: period %.1f (bin %d, magnitude %.3f)\n", osc.Period, osc.Bin, osc.Magnitude)
	} else {
		fmt.Println("dominant oscillation: none")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return export.RunJSON(os.Stdout, st, args[0])
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.RunJSON(f, st, args[0])
}

func renderSVG(cmd *cobra.Command, args []string) error {
	_, s, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if svgSteps > 0 {
		if _, err := s.Run(cmd.Context(), svgSteps); err != nil {
			return err
		}
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	frame := s.Snapshot()
	defer s.Release(frame)
	if err := export.FrameSVG(f, frame, svgScale); err != nil {
		return err
	}
	fmt.Printf("wrote %s (t=%.1f)\n", args[0], frame.Time)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	lo, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("bad max: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	backend, err := compute.ByName(cfg.Backend.Name, cfg.BackendOptions())
	if err != nil {
		return err
	}
	defer backend.Cleanup()

	results, err := automation.RunSweep(cmd.Context(), cfg, automation.ParameterSweep{
		Param:    args[0],
		Min:      lo,
		Max:      hi,
		NumSteps: sweepPoints,
		Steps:    sweepSteps,
	}, backend, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKINETIC\tSPEED\tCONTAINED\n", args[0])
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.3f\t%.4f\t%.3f\n", r.ParamValue, r.KineticEnergy, r.MeanSpeed, r.Containment)
	}
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	_, s, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Info("script started", "name", script.Name, "steps", script.Steps, "events", len(script.Events))
	applied, err := automation.Run(cmd.Context(), script, s, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("script %s: %d events over %d steps, t=%.1f\n", script.Name, applied, s.Steps(), s.Time())
	return nil
}
