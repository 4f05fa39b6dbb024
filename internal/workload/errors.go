package workload

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand indicates a step whose command is not recognised.
	ErrUnknownCommand = errors.New("workload: unknown command")

	// ErrUsage indicates a step with the wrong number or shape of arguments.
	ErrUsage = errors.New("workload: bad usage")

	// ErrUnknownHandle indicates a step naming a handle that was never bound.
	ErrUnknownHandle = errors.New("workload: unknown handle")

	// ErrHandleBound indicates an attempt to rebind a name that still holds a live handle.
	ErrHandleBound = errors.New("workload: handle name already bound")

	// ErrExpectation indicates an expect step that did not hold.
	ErrExpectation = errors.New("workload: expectation failed")
)

// StepError reports the step that failed.
type StepError struct {
	Step    int    // 1-based step index
	Command string // Step text as written
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Command, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
