package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for harness operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a loop configuration that cannot be run.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUnknownParam indicates a tuning parameter the target does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// StepError wraps an error with the tick at which it happened.
type StepError struct {
	Step    int
	Time    float64
	Control Control
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
