package sim

import (
	"context"
	"io"
	"log/slog"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same scenario under consecutive seeds, one simulator
// per seed, in parallel.
type Ensemble struct {
	cfg       config.Config
	numRuns   int
	seedStart uint64
	metrics   func() []Metric
	limit     int
}

// NewEnsemble prepares numRuns runs seeded from seedStart upward. metrics
// builds a fresh metric set for each run and may be nil.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart uint64, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: *cfg, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

// SetLimit caps how many runs execute at once. Zero means no cap.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run executes every member for steps timesteps. Each member runs its
// stages serially; the parallelism is across members.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg
			cfg.Seed = e.seedStart + uint64(i)

			opts := []Option{
				WithBackend(compute.NewSerialBackend()),
				WithLogger(quiet),
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					opts = append(opts, WithMetric(m))
				}
			}

			s, err := New(&cfg, opts...)
			if err != nil {
				return err
			}
			defer s.Close()

			results[i], err = s.Run(ctx, steps)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
