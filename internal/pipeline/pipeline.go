// Package pipeline advances a universe one timestep at a time.
//
// Every timestep runs four stages on a compute backend, each separated by a
// barrier:
//
//  1. setup-tiles: reserve each tile's slots from last step's occupancy
//  2. sort: scatter the published particles into tile order
//  3. forces: accumulate accelerations from neighbouring tiles
//  4. integrate: advance velocities and positions, counting new occupancy
//
// The sorted copy is only published once all four have finished, so
// readers of Front never see a half-updated timestep.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/grid"
	"github.com/san-kum/particlelife/internal/universe"
	"gonum.org/v1/gonum/spatial/r2"
)

// StageTimer receives the wall time of each stage, including its barrier.
type StageTimer interface {
	ObserveStage(stage compute.Stage, d time.Duration)
}

// Pipeline owns the double-buffered particle state of one universe.
// Step and the accessors must not be called concurrently; Phase may be.
type Pipeline struct {
	u       *universe.Universe
	backend compute.Backend
	timer   StageTimer
	logger  *slog.Logger

	world    dynamo.World
	table    []dynamo.Interaction
	numTypes int

	geom  grid.Geometry
	tiles *grid.TileList
	buf   buffers
	accel []r2.Vec

	phase atomic.Int32
	steps int
	err   error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStageTimer reports stage durations to t.
func WithStageTimer(t StageTimer) Option {
	return func(p *Pipeline) { p.timer = t }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a pipeline over u and loads its particles. A nil backend uses
// compute.GetBackend().
func New(u *universe.Universe, backend compute.Backend, opts ...Option) *Pipeline {
	if backend == nil {
		backend = compute.GetBackend()
	}
	p := &Pipeline{u: u, backend: backend}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.Resync()
	return p
}

// Resync reloads every particle from the universe and rebuilds the grid.
// Call it after the universe is randomized or its particles are edited.
func (p *Pipeline) Resync() {
	particles := p.u.Particles()
	p.buf = newBuffers(len(particles))
	copy(p.buf.published(), particles)
	p.accel = make([]r2.Vec, len(particles))
	p.Regrid()
}

// Regrid rebuilds the grid from the universe's current interaction table
// while keeping the published particles. Call it after interactions change.
func (p *Pipeline) Regrid() {
	p.world = p.u.World()
	p.numTypes = p.u.NumTypes()
	p.table = append(p.table[:0], p.u.Table()...)

	p.geom = grid.NewGeometry(p.u.MaxRadius(), p.world.Width, p.world.Height)
	p.tiles = grid.NewTileList(p.geom.NumTiles())
	p.tiles.Count(p.geom, p.buf.published())
	p.err = nil
	p.phase.Store(int32(PhaseIdle))

	p.logger.Debug("grid rebuilt",
		"tile_size", p.geom.TileSize,
		"tiles_x", p.geom.NumTilesX,
		"tiles_y", p.geom.NumTilesY,
		"backend", p.backend.Name(),
	)
}

// Step advances one timestep. World settings are read from the universe at
// the start of the step. A failed step leaves the last published snapshot
// intact. A cancelled context abandons the step cleanly; any other failure
// repeats on every later Step until Resync or Regrid.
func (p *Pipeline) Step(ctx context.Context) error {
	if p.err != nil {
		return p.err
	}
	p.world = p.u.World()
	n := len(p.buf.published())

	stages := []struct {
		phase Phase
		stage compute.Stage
		items int
		run   compute.Kernel
	}{
		{PhaseSortingIntoRead, compute.StageSetupTiles, 1, p.setupTiles},
		{PhaseSortingIntoRead, compute.StageSort, n, p.scatter},
		{PhaseComputingForces, compute.StageForces, p.geom.NumTiles(), p.forces},
		{PhaseIntegrating, compute.StageIntegrate, n, p.integrate},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return p.abort(s.stage, err)
		}
		p.phase.Store(int32(s.phase))

		start := time.Now()
		p.backend.Dispatch(s.stage, s.items, s.run)
		if err := p.backend.Barrier(); err != nil {
			return p.fail(s.stage, err)
		}
		if p.timer != nil {
			p.timer.ObserveStage(s.stage, time.Since(start))
		}
	}

	p.buf.swap()
	p.steps++
	p.phase.Store(int32(PhaseSwapped))
	return nil
}

// abort abandons a timestep between stages. The published snapshot is
// untouched, so recounting its occupancy is enough to run again.
func (p *Pipeline) abort(stage compute.Stage, err error) error {
	p.tiles.Count(p.geom, p.buf.published())
	p.phase.Store(int32(PhaseIdle))
	return &dynamo.StepError{Step: p.steps, Stage: stage.String(), Wrapped: err}
}

func (p *Pipeline) fail(stage compute.Stage, err error) error {
	p.err = &dynamo.StepError{Step: p.steps, Stage: stage.String(), Wrapped: err}
	p.phase.Store(int32(PhaseIdle))
	p.logger.Error("timestep failed", "step", p.steps, "stage", stage.String(), "error", err)
	return p.err
}

// Front returns the published particles of the last completed timestep, in
// tile order. The slice is reused; copy it to keep it across steps.
func (p *Pipeline) Front() []dynamo.Particle { return p.buf.published() }

// Accelerations returns the acceleration applied to each particle of Front
// during the last timestep.
func (p *Pipeline) Accelerations() []r2.Vec { return p.accel }

// Phase returns the current stage of the running timestep.
func (p *Pipeline) Phase() Phase { return Phase(p.phase.Load()) }

// Geometry returns the tile grid in use.
func (p *Pipeline) Geometry() grid.Geometry { return p.geom }

// Steps returns the number of completed timesteps.
func (p *Pipeline) Steps() int { return p.steps }

// Backend returns the compute backend stages run on.
func (p *Pipeline) Backend() compute.Backend { return p.backend }
