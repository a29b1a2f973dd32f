package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a scenario that cannot be simulated.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrDimensionMismatch indicates mismatched type, table or particle dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrTileOverflow indicates a scatter wrote past the slots reserved for a tile.
	ErrTileOverflow = errors.New("dynamo: tile overflow during scatter")

	// ErrDispatch indicates a compute stage failed to run.
	ErrDispatch = errors.New("dynamo: compute dispatch failed")

	// ErrBackendUnavailable indicates the requested compute backend cannot run here.
	ErrBackendUnavailable = errors.New("dynamo: compute backend unavailable")
)

// StepError wraps an error with the timestep and stage it occurred in.
type StepError struct {
	Step    int
	Stage   string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Stage, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// Invalidf builds an ErrInvalidConfig with a formatted detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
