package command

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Status represents the current state of a command
type Status string

// Possible command status values. A command moves from StatusCreated to
// StatusRunning when a worker picks it up, and from there to exactly one of
// the four completion states.
const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
	StatusTerminal  Status = "terminal"
)

// Done reports whether s is a completion state.
func (s Status) Done() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTerminal:
		return true
	}
	return false
}

// ExecuteFunc is the work a command performs. It receives the command so it
// can record model updates, queue follow-up commands, poll the abort flag at
// safe points, and mark the command terminal on unrecoverable conditions.
type ExecuteFunc func(ctx context.Context, cmd *Command) error

// UndoFunc reverses the effect of a previously executed command. It is
// invoked synchronously by the executor, never through the queue.
type UndoFunc func(ctx context.Context, cmd *Command) error

// CompletionFunc is invoked by the executor exactly once after the command
// completes, on a goroutine of the executor's choosing.
type CompletionFunc func(cmd *Command, success bool)

// Options configures a new command.
type Options struct {
	// Execute is the work to perform. Required.
	Execute ExecuteFunc

	// Undo reverses the command. A command without an undo function cannot
	// be undone, and undo history cannot be unwound past it.
	Undo UndoFunc

	// OnAbort is called once, the first time Abort is observed.
	OnAbort func(cmd *Command)

	// SkipUndo excludes the command from the undo stack entirely.
	SkipUndo bool

	// Blocking prevents any other command from starting until this one
	// completes.
	Blocking bool
}

// Command is a unit of undoable, cancellable work. It is created by a
// caller, owned by the executor from submission until it leaves the
// undo/redo history, and discarded afterwards.
type Command struct {
	id   uuid.UUID
	name string

	canUndo  bool
	skipUndo bool
	blocking bool

	execute ExecuteFunc
	undoFn  UndoFunc
	onAbort func(cmd *Command)

	aborted atomic.Bool

	mu       sync.Mutex
	status   Status
	terminal bool
	execErr  error
	updates  []*ModelUpdate
	children []*Command

	callback     CompletionFunc
	undoCallback func(cmd *Command)
	callbackOnce sync.Once
	undoOnce     sync.Once
}

// New creates a command with the given name and options. The name is a
// human-readable label used for logging and history listings.
func New(name string, opts Options) (*Command, error) {
	if opts.Execute == nil {
		return nil, ErrNilExecute
	}

	return &Command{
		id:       uuid.New(),
		name:     name,
		canUndo:  opts.Undo != nil,
		skipUndo: opts.SkipUndo,
		blocking: opts.Blocking,
		execute:  opts.Execute,
		undoFn:   opts.Undo,
		onAbort:  opts.OnAbort,
		status:   StatusCreated,
	}, nil
}

// ID returns the command's unique identifier
func (c *Command) ID() uuid.UUID {
	return c.id
}

// Name returns the command's human-readable label
func (c *Command) Name() string {
	return c.name
}

// Blocking reports whether the command serializes the queue
func (c *Command) Blocking() bool {
	return c.blocking
}

// CanUndo reports whether the command has an undo function. Fixed at
// creation.
func (c *Command) CanUndo() bool {
	return c.canUndo
}

// SkipUndo reports whether the command is excluded from the undo stack
func (c *Command) SkipUndo() bool {
	return c.skipUndo
}

// Status returns the command's current state
func (c *Command) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error recorded when the command failed, if any.
func (c *Command) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execErr
}

// Abort requests cooperative cancellation. The flag only ever moves from
// false to true; a second call is a no-op. Long-running execute bodies must
// poll Aborted at safe points and return promptly.
func (c *Command) Abort() {
	if c.aborted.CompareAndSwap(false, true) {
		if c.onAbort != nil {
			c.onAbort(c)
		}
	}
}

// Aborted reports whether cancellation has been requested.
func (c *Command) Aborted() bool {
	return c.aborted.Load()
}

// MarkTerminal flags the command's failure as unrecoverable. The executor
// halts dispatching after a terminal command completes.
func (c *Command) MarkTerminal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminal = true
}

// Terminal reports whether the command has been marked unrecoverable.
func (c *Command) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminal
}

// SetCallback sets the completion handler. Set it once, before submission;
// the executor invokes it exactly once after the command completes, on a
// goroutine of its choosing.
func (c *Command) SetCallback(fn CompletionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = fn
}

// SetUndoCallback sets the handler invoked once after the command is undone.
func (c *Command) SetUndoCallback(fn func(cmd *Command)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.undoCallback = fn
}

// AddUpdate appends a fresh model update to the command's update list and
// returns it. Updates may only be recorded while the command is running.
func (c *Command) AddUpdate() (*ModelUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRunning {
		return nil, fmt.Errorf("%w: cannot record model update in state %q", ErrNotRunning, c.status)
	}

	update := &ModelUpdate{}
	c.updates = append(c.updates, update)
	return update, nil
}

// ClearUpdates discards any recorded model updates.
func (c *Command) ClearUpdates() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = nil
}

// Updates returns the recorded model updates in append order.
func (c *Command) Updates() []*ModelUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	updates := make([]*ModelUpdate, len(c.updates))
	copy(updates, c.updates)
	return updates
}

// QueueCommand registers a follow-up command to be submitted by the executor
// after this command completes successfully. Only valid while running.
func (c *Command) QueueCommand(child *Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRunning {
		return fmt.Errorf("%w: cannot queue follow-up command in state %q", ErrNotRunning, c.status)
	}

	c.children = append(c.children, child)
	return nil
}

// takeChildren removes and returns the queued follow-up commands.
func (c *Command) takeChildren() []*Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	children := c.children
	c.children = nil
	return children
}

// run executes the command on the calling goroutine and moves it to a
// completion state. Faults in the execute function are caught here and
// converted to a failed completion; they never reach the worker pool.
func (c *Command) run(ctx context.Context) (success bool) {
	if c.Aborted() {
		c.complete(StatusAborted, nil)
		return false
	}

	c.setStatus(StatusRunning)

	defer func() {
		if r := recover(); r != nil {
			c.complete(StatusFailed, fmt.Errorf("panic in command %s: %v", c.name, r))
			success = false
		}
	}()

	err := c.execute(ctx, c)

	switch {
	case c.Aborted():
		c.complete(StatusAborted, nil)
		return false
	case c.Terminal():
		c.complete(StatusTerminal, err)
		return false
	case err != nil:
		c.complete(StatusFailed, err)
		return false
	default:
		c.complete(StatusSucceeded, nil)
		return true
	}
}

// undo invokes the command's undo function. Calling undo on a command that
// cannot be undone, or is excluded from the undo stack, is a misuse.
func (c *Command) undo(ctx context.Context) error {
	if !c.canUndo || c.skipUndo {
		return fmt.Errorf("%w: command %s cannot be undone", ErrUndo, c.name)
	}
	return c.undoFn(ctx, c)
}

// reset returns a completed command to its created state so the executor can
// re-run it for redo. The abort flag is not cleared; it only ever rises.
func (c *Command) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusCreated
	c.terminal = false
	c.execErr = nil
	c.updates = nil
	c.children = nil
}

func (c *Command) setStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Command) complete(status Status, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.execErr = err
}

// executeCallback delivers the completion handler at most once.
func (c *Command) executeCallback(success bool) {
	c.mu.Lock()
	fn := c.callback
	c.mu.Unlock()
	if fn == nil {
		return
	}
	c.callbackOnce.Do(func() {
		fn(c, success)
	})
}

// executeUndoCallback delivers the undo handler at most once.
func (c *Command) executeUndoCallback() {
	c.mu.Lock()
	fn := c.undoCallback
	c.mu.Unlock()
	if fn == nil {
		return
	}
	c.undoOnce.Do(func() {
		fn(c)
	})
}
