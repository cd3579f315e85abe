package command

import "errors"

// Common errors returned by the command package
var (
	// ErrUndo is returned when there is nothing to undo or the command at the
	// top of the undo stack cannot be undone
	ErrUndo = errors.New("cannot undo")

	// ErrRedo is returned when the redo stack is empty
	ErrRedo = errors.New("cannot redo")

	// ErrQueueHalted is returned by Submit after a terminal command has
	// halted the executor
	ErrQueueHalted = errors.New("command queue halted by a terminal command")

	// ErrQueueFull is returned by Submit when the pending queue is at capacity
	ErrQueueFull = errors.New("command queue is full")

	// ErrQueueClosed is returned by Submit after the executor has been stopped
	ErrQueueClosed = errors.New("command queue is closed")

	// ErrNotRunning is returned when an operation is only valid while the
	// command is executing, such as recording a model update
	ErrNotRunning = errors.New("command is not running")

	// ErrNilExecute is returned by New when no execute function is provided
	ErrNilExecute = errors.New("command requires an execute function")
)
