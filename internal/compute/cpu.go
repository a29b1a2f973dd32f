package compute

import (
	"runtime"

	"github.com/san-kum/particlelife/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// DefaultMinChunk is the smallest slice of work handed to one goroutine.
const DefaultMinChunk = 256

// ForcesMinChunk is the smallest number of tiles handed to one goroutine in
// the forces stage. A tile holds many particles, so one is enough.
const ForcesMinChunk = 1

// CPUBackend splits each dispatch into contiguous chunks and runs them on
// at most workers goroutines.
type CPUBackend struct {
	workers  int
	minChunk int
	group    *errgroup.Group
}

// NewCPUBackend builds a backend. Zero values select runtime.NumCPU workers
// and DefaultMinChunk.
func NewCPUBackend(workers, minChunk int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk <= 0 {
		minChunk = DefaultMinChunk
	}
	c := &CPUBackend{workers: workers, minChunk: minChunk}
	c.reset()
	return c
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return c.workers > 1 }
func (c *CPUBackend) Cleanup()        { _ = c.group.Wait() }

// Workers returns the goroutine limit.
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) reset() {
	c.group = new(errgroup.Group)
	c.group.SetLimit(c.workers)
}

func (c *CPUBackend) Dispatch(stage Stage, workItems int, kernel Kernel) {
	minChunk := c.minChunk
	if stage == StageForces {
		minChunk = ForcesMinChunk
	}
	for _, r := range dynamo.Split(workItems, c.workers, minChunk) {
		c.group.Go(func() error {
			if err := kernel(r.Start, r.End); err != nil {
				return stageError(stage, err)
			}
			return nil
		})
	}
}

func (c *CPUBackend) Barrier() error {
	err := c.group.Wait()
	c.reset()
	return err
}
