package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/sim"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logJSON    bool

	backendName string
	workers     int
	seed        uint64
	preset      string
	numTypes    int
	particles   int
	worldWidth  float64
	worldHeight float64
	wrap        bool
	friction    float64
	dt          float64
	kernel      string
	spawn       string

	steps       int
	sampleEvery int
	numRuns     int
	outFile     string
	svgSteps    int
	svgScale    float64
	sweepSteps  int
	sweepPoints int
)

var logger = slog.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:           "plife",
		Short:         "particle life simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: runLive,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".plife", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&backendName, "backend", "auto", fmt.Sprintf("compute backend %v", compute.Names()))
	pf.IntVar(&workers, "workers", 0, "cpu backend workers (0 = all cores)")
	pf.Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.StringVar(&preset, "preset", "", "scenario preset")
	pf.IntVar(&numTypes, "types", config.DefaultTypes, "number of particle types")
	pf.IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	pf.Float64Var(&worldWidth, "width", config.DefaultWidth, "world width")
	pf.Float64Var(&worldHeight, "height", config.DefaultHeight, "world height")
	pf.BoolVar(&wrap, "wrap", true, "wrap particles around the world edges")
	pf.Float64Var(&friction, "friction", 0.05, "velocity damping per unit time")
	pf.Float64Var(&dt, "dt", 1.0, "timestep")
	pf.StringVar(&kernel, "kernel", "tent", "force kernel (tent, smooth)")
	pf.StringVar(&spawn, "spawn", "uniform", "initial layout (uniform, noise)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store its telemetry",
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&steps, "steps", 1000, "timesteps to run")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "record telemetry every n steps")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "run an ensemble over consecutive seeds")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time a fixed-seed run",
		RunE:  benchSimulation,
	}
	benchCmd.Flags().IntVar(&steps, "steps", 1000, "timesteps to run")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print the interaction table of a scenario",
		RunE:  printParams,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run in a window",
		RunE:  runGUI,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outFile, "svg", "", "also write the energy plot to this svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a stored run's energy and find its dominant oscillation",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [file]",
		Short: "render the particles after some steps to svg",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().IntVar(&svgSteps, "steps", 500, "timesteps to run before rendering")
	svgCmd.Flags().Float64Var(&svgScale, "scale", 1, "pixels per world unit")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [min] [max]",
		Short: "sweep one scenario parameter",
		Args:  cobra.ExactArgs(3),
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 500, "timesteps per point")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of sweep points")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "play a scripted sequence of control events",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, benchCmd, paramsCmd, presetsCmd, configCmd, liveCmd, guiCmd,
		listCmd, plotCmd, analyzeCmd, exportCmd, svgCmd, sweepCmd, scriptCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("bad --log-level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// loadConfig builds the effective configuration: defaults, then the
// config file, then a preset, then any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("preset") {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend.Name = backendName
	}
	if flags.Changed("workers") {
		cfg.Backend.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("types") {
		cfg.Universe.Types = numTypes
	}
	if flags.Changed("particles") {
		cfg.Universe.Particles = particles
	}
	if flags.Changed("width") {
		cfg.Universe.Width = worldWidth
	}
	if flags.Changed("height") {
		cfg.Universe.Height = worldHeight
	}
	if flags.Changed("wrap") {
		cfg.World.Wrap = wrap
	}
	if flags.Changed("friction") {
		cfg.World.Friction = friction
	}
	if flags.Changed("dt") {
		cfg.World.DeltaTime = dt
	}
	if flags.Changed("kernel") {
		cfg.Kernel = kernel
	}
	if flags.Changed("spawn") {
		cfg.Spawn = spawn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cmd *cobra.Command, opts ...sim.Option) (*config.Config, *sim.Simulator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := sim.New(cfg, append([]sim.Option{sim.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}
