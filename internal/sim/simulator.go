// Package sim drives a particle universe through time and exposes the
// controls and read-only views front ends need.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/pipeline"
	"github.com/san-kum/particlelife/internal/telemetry"
	"github.com/san-kum/particlelife/internal/universe"
)

// TimeScaleFactor is the step by which ScaleTime speeds up or slows down.
const TimeScaleFactor = 1.1

// Simulator owns a universe and its pipeline. Its methods are safe for
// concurrent use: controls and Step serialize, views may run in parallel.
type Simulator struct {
	mu sync.RWMutex

	u       *universe.Universe
	pipe    *pipeline.Pipeline
	backend compute.Backend
	perf    *telemetry.PerfCollector
	pool    *ParticlePool
	logger  *slog.Logger
	seed    uint64

	metrics   []Metric
	observers []Observer

	steps int
	time  float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithBackend overrides the backend named in the config.
func WithBackend(b compute.Backend) Option {
	return func(s *Simulator) { s.backend = b }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithPerf records stage timings into p.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(s *Simulator) { s.perf = p }
}

// WithMetric adds a metric observed after every step.
func WithMetric(m Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

// WithObserver adds an observer called after every step.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// New builds a randomized universe from cfg and a pipeline to run it.
func New(cfg *config.Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{seed: cfg.Seed}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.perf == nil {
		s.perf = telemetry.NewPerfCollector(60)
	}
	if s.backend == nil {
		b, err := compute.ByName(cfg.Backend.Name, cfg.BackendOptions())
		if err != nil {
			return nil, err
		}
		s.backend = b
	}
	if !s.backend.Available() {
		s.logger.Warn("backend unavailable, falling back to serial", "backend", s.backend.Name())
		s.backend = compute.NewSerialBackend()
	}

	world, err := cfg.WorldSettings()
	if err != nil {
		return nil, err
	}
	spawn, err := universe.ParseSpawn(cfg.Spawn)
	if err != nil {
		return nil, err
	}

	s.u, err = universe.New(cfg.Universe.Types, cfg.Universe.Particles, cfg.Universe.Width, cfg.Universe.Height,
		universe.WithSeed(cfg.Seed),
		universe.WithWorld(world),
		universe.WithSpawn(spawn),
		universe.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	if err := s.u.Randomize(cfg.Randomize); err != nil {
		return nil, err
	}

	s.pipe = pipeline.New(s.u, s.backend,
		pipeline.WithStageTimer(s.perf),
		pipeline.WithLogger(s.logger),
	)
	s.pool = NewParticlePool(cfg.Universe.Particles)

	s.logger.Info("simulator ready",
		"backend", s.backend.Name(),
		"seed", cfg.Seed,
		"tiles_x", s.pipe.Geometry().NumTilesX,
		"tiles_y", s.pipe.Geometry().NumTilesY,
	)
	return s, nil
}

// Step advances one timestep and notifies metrics and observers.
func (s *Simulator) Step(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(ctx)
}

func (s *Simulator) step(ctx context.Context) error {
	s.perf.StartStep()
	if err := s.pipe.Step(ctx); err != nil {
		return err
	}
	s.perf.EndStep()

	w := s.u.World()
	s.steps++
	s.time += w.DeltaTime

	front := s.pipe.Front()
	for _, m := range s.metrics {
		m.Observe(front, w, s.time)
	}
	for _, o := range s.observers {
		o.OnStep(front, w, s.time)
	}
	return nil
}

// Run advances steps timesteps, stopping early if ctx is cancelled. The
// result covers the steps completed either way.
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps <= 0 {
		return nil, dynamo.Invalidf("steps must be positive, got %d", steps)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Seed: s.seed}
	start := time.Now()
	var runErr error
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.Step(ctx); err != nil {
			runErr = err
			break
		}
		result.Steps++
	}
	result.Wall = time.Since(start)
	result.SimTime = s.Time()
	result.Metrics = s.MetricValues()

	s.logger.Info("run finished",
		"steps", result.Steps,
		"wall", result.Wall,
		"steps_per_sec", fmt.Sprintf("%.1f", result.StepsPerSecond()),
	)
	return result, runErr
}

// RunWithCallback steps until ctx is cancelled, maxSteps is reached
// (zero means no limit) or callback returns false. callback runs after
// every step without the simulator lock held.
func (s *Simulator) RunWithCallback(ctx context.Context, maxSteps int, callback func(step int) bool) error {
	for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(ctx); err != nil {
			return err
		}
		if !callback(i + 1) {
			return nil
		}
	}
	return nil
}

// Randomize rebuilds interactions and particles from p.
func (s *Simulator) Randomize(p universe.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.randomize(p)
}

func (s *Simulator) randomize(p universe.Params) error {
	if err := s.u.Randomize(p); err != nil {
		return err
	}
	s.pipe.Resync()
	if n := len(s.u.Particles()); n != s.pool.size {
		s.pool = NewParticlePool(n)
	}
	return nil
}

// ApplyPreset switches to a built-in scenario.
func (s *Simulator) ApplyPreset(name string) error {
	p := config.GetPreset(name)
	if p == nil {
		return dynamo.Invalidf("unknown preset %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.u.SetFriction(p.Friction); err != nil {
		return err
	}
	if err := s.randomize(p.Params); err != nil {
		return err
	}
	s.logger.Info("preset applied", "preset", name)
	return nil
}

// SetParticles replaces every particle. The count must match, every type
// must exist and every coordinate must be finite.
func (s *Simulator) SetParticles(ps []dynamo.Particle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.u.Particles()
	if len(ps) != len(dst) {
		return fmt.Errorf("%w: got %d particles, universe holds %d", dynamo.ErrDimensionMismatch, len(ps), len(dst))
	}
	for i, p := range ps {
		if p.Type < 0 || p.Type >= s.u.NumTypes() {
			return fmt.Errorf("%w: particle %d has type %d of %d", dynamo.ErrDimensionMismatch, i, p.Type, s.u.NumTypes())
		}
		if !dynamo.Finite(p.Pos.X) || !dynamo.Finite(p.Pos.Y) || !dynamo.Finite(p.Vel.X) || !dynamo.Finite(p.Vel.Y) {
			return dynamo.Invalidf("particle %d has non-finite state %+v", i, p)
		}
	}
	copy(dst, ps)
	s.pipe.Resync()
	return nil
}

// Reseed restarts the generator used by later randomizations.
func (s *Simulator) Reseed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.u.Reseed(seed)
	s.seed = seed
}

// SetInteraction overrides one type pair and rebuilds the grid without
// touching particle state.
func (s *Simulator) SetInteraction(a, b int, attraction, minRadius, maxRadius float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.u.SetInteraction(a, b, attraction, minRadius, maxRadius); err != nil {
		return err
	}
	s.pipe.Regrid()
	return nil
}

func (s *Simulator) SetWrap(wrap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.u.SetWrap(wrap)
}

// ToggleWrap flips wrapping and returns the new setting.
func (s *Simulator) ToggleWrap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wrap := !s.u.World().Wrap
	s.u.SetWrap(wrap)
	return wrap
}

func (s *Simulator) SetFriction(f float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.u.SetFriction(f)
}

func (s *Simulator) SetDeltaTime(dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.u.SetDeltaTime(dt)
}

// ScaleTime multiplies the timestep by factor.
func (s *Simulator) ScaleTime(factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.u.SetDeltaTime(s.u.World().DeltaTime * factor)
}

// View calls fn with the current state. The frame's slices are only valid
// inside fn and must not be modified.
func (s *Simulator) View(fn func(Frame)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.frame(s.pipe.Front()))
}

// Snapshot returns a copy of the current state. Pass it to Release when
// done to recycle the particle buffer.
func (s *Simulator) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame(s.pool.GetAndCopy(s.pipe.Front()))
}

// Release recycles a frame returned by Snapshot.
func (s *Simulator) Release(f Frame) {
	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()
	pool.Put(f.Particles)
}

func (s *Simulator) frame(ps []dynamo.Particle) Frame {
	return Frame{
		Particles: ps,
		Types:     s.u.Types(),
		World:     s.u.World(),
		Steps:     s.steps,
		Time:      s.time,
	}
}

// WriteParams dumps the interaction table.
func (s *Simulator) WriteParams(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.u.WriteParams(w)
}

// Interaction returns how type a reacts to type b.
func (s *Simulator) Interaction(a, b int) dynamo.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.u.Interaction(a, b)
}

func (s *Simulator) World() dynamo.World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.u.World()
}

func (s *Simulator) Steps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

// Time returns the simulated time, the sum of every step's delta time.
func (s *Simulator) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

func (s *Simulator) Seed() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed
}

// Phase reports the pipeline stage currently running.
func (s *Simulator) Phase() pipeline.Phase { return s.pipe.Phase() }

// Perf returns timing statistics over the recent window.
func (s *Simulator) Perf() telemetry.PerfStats { return s.perf.Stats() }

// BackendName names the compute backend in use.
func (s *Simulator) BackendName() string { return s.backend.Name() }

// MetricValues returns the current value of every metric by name.
func (s *Simulator) MetricValues() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		values[m.Name()] = m.Value()
	}
	return values
}

// Close releases the compute backend.
func (s *Simulator) Close() {
	s.backend.Cleanup()
}
