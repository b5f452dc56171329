package workpool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolStopped is returned when submitting to a pool that is shutting down or terminated.
	ErrPoolStopped = errors.New("workpool: pool stopped")

	// ErrNilTask is returned when submitting a nil task.
	ErrNilTask = errors.New("workpool: nil task")

	// ErrInvalidWorkerCount indicates a non-positive worker count.
	ErrInvalidWorkerCount = errors.New("workpool: worker count must be positive")
)

// PanicError is the error of a task that panicked.
type PanicError struct {
	Value any    // value passed to panic
	Stack []byte // stack of the panicking goroutine
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workpool: task panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}
