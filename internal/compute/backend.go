package compute

import (
	"fmt"
	"sort"

	"github.com/san-kum/particlelife/internal/dynamo"
)

// Stage names one data-parallel step of a timestep.
type Stage int

const (
	StageSetupTiles Stage = iota
	StageSort
	StageForces
	StageIntegrate
)

func (s Stage) String() string {
	switch s {
	case StageSetupTiles:
		return "setup-tiles"
	case StageSort:
		return "sort"
	case StageForces:
		return "forces"
	case StageIntegrate:
		return "integrate"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Kernel processes work items [start, end).
type Kernel func(start, end int) error

// Backend schedules stage kernels.
type Backend interface {
	Name() string
	Available() bool
	// Dispatch enqueues kernel over workItems items. It may return before
	// the kernel has run.
	Dispatch(stage Stage, workItems int, kernel Kernel)
	// Barrier waits for all dispatched work and returns the first failure,
	// wrapped in dynamo.ErrDispatch.
	Barrier() error
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil && activeBackend != b {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend picks the parallel CPU backend unless the machine has a
// single core.
func AutoSelectBackend() Backend {
	cpu := NewCPUBackend(0, 0)
	if cpu.Available() {
		return cpu
	}
	return NewSerialBackend()
}

// Options tune a backend built by ByName.
type Options struct {
	Workers  int
	MinChunk int
}

var constructors = map[string]func(Options) Backend{
	"serial": func(Options) Backend { return NewSerialBackend() },
	"cpu":    func(o Options) Backend { return NewCPUBackend(o.Workers, o.MinChunk) },
	"auto":   func(Options) Backend { return AutoSelectBackend() },
}

// ByName builds a backend from its configuration name.
func ByName(name string, opts Options) (Backend, error) {
	if name == "" {
		name = "auto"
	}
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q (have %v)", dynamo.ErrBackendUnavailable, name, Names())
	}
	return ctor(opts), nil
}

// Names lists the backend names ByName accepts.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stageError(stage Stage, err error) error {
	return fmt.Errorf("%w: %s: %w", dynamo.ErrDispatch, stage, err)
}
