package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutorConfig holds configuration for the executor
type ExecutorConfig struct {
	// WorkerCount determines how many non-blocking commands may execute
	// concurrently. If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize bounds the number of commands waiting for dispatch
	QueueSize int
}

// DefaultExecutorConfig returns an ExecutorConfig with reasonable defaults
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// Summary is a point-in-time description of a command in the executor's
// history, safe to hand to callers outside the package.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	CanUndo  bool      `json:"can_undo"`
	Blocking bool      `json:"blocking"`
}

// Executor schedules commands onto a bounded worker pool, serializes
// blocking commands, maintains the undo/redo history, and halts dispatch
// after a terminal command. The undo/redo stacks and the halted flag are
// owned exclusively by the executor; commands and workers never touch them.
type Executor struct {
	cfg     ExecutorConfig
	applier ModelApplier
	logger  *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	// onExecuted, if set, is invoked once per completed command after its
	// own callback. Used to fan completion events out to observers.
	onExecuted func(cmd *Command, success bool, elapsed time.Duration)

	mu        sync.Mutex
	pending   []*Command
	running   map[uuid.UUID]*Command
	blocked   bool
	halted    bool
	closed    bool
	undoStack []*Command
	redoStack []*Command
}

// NewExecutor creates an executor that applies successful commands' model
// updates through the given applier. The applier may be nil, in which case
// updates are produced but never consumed.
func NewExecutor(applier ModelApplier, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultExecutorConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Executor{
		cfg:        cfg,
		applier:    applier,
		logger:     logger.With("component", "executor"),
		ctx:        ctx,
		cancelFunc: cancel,
		running:    make(map[uuid.UUID]*Command),
	}
}

// SetExecutedHook sets an observer invoked once per completed command. Set
// it before the first Submit; it runs on a worker goroutine.
func (e *Executor) SetExecutedHook(fn func(cmd *Command, success bool, elapsed time.Duration)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onExecuted = fn
}

// Submit enqueues a command for execution. Commands are held in arrival
// order; a blocking command (submitted or already running) prevents any
// later command from starting until it completes.
func (e *Executor) Submit(cmd *Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrQueueClosed
	}
	if e.halted {
		return fmt.Errorf("%w: rejecting command %s", ErrQueueHalted, cmd.Name())
	}
	if len(e.pending) >= e.cfg.QueueSize {
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, e.cfg.QueueSize)
	}

	e.pending = append(e.pending, cmd)
	e.logger.Debug("command submitted",
		"command_id", cmd.ID(),
		"command_name", cmd.Name(),
		"blocking", cmd.Blocking(),
		"queue_len", len(e.pending))

	e.dispatchLocked()
	return nil
}

// dispatchLocked starts as many pending commands as the blocking gate and
// worker pool capacity allow. Caller must hold e.mu.
func (e *Executor) dispatchLocked() {
	for len(e.pending) > 0 {
		if e.halted || e.blocked || len(e.running) >= e.cfg.WorkerCount {
			return
		}

		next := e.pending[0]
		if next.Blocking() && len(e.running) > 0 {
			// A blocking command waits for the pool to drain, and holds
			// back everything submitted after it.
			return
		}

		e.pending = e.pending[1:]
		e.running[next.ID()] = next
		if next.Blocking() {
			e.blocked = true
		}

		e.wg.Add(1)
		go e.runCommand(next)
	}
}

// runCommand executes one command on a worker goroutine and reports its
// completion. Completion is delivered exactly once per command regardless of
// the success, failure, or abort path.
func (e *Executor) runCommand(cmd *Command) {
	defer e.wg.Done()

	logger := e.logger.With(
		"command_id", cmd.ID(),
		"command_name", cmd.Name())

	start := time.Now()
	success := cmd.run(e.ctx)
	elapsed := time.Since(start)

	switch cmd.Status() {
	case StatusSucceeded:
		logger.Info("command succeeded", "elapsed", elapsed)
	case StatusAborted:
		logger.Info("command aborted", "elapsed", elapsed)
	case StatusTerminal:
		logger.Error("unrecoverable error in command", "error", cmd.Err(), "elapsed", elapsed)
	default:
		logger.Error("command failed", "error", cmd.Err(), "elapsed", elapsed)
	}

	e.finish(cmd, success, elapsed)
}

// finish performs the executor's bookkeeping for a completed command:
// applying model updates on success, maintaining the undo/redo history,
// halting the queue after a terminal command, releasing the blocking gate,
// and delivering the completion callback.
func (e *Executor) finish(cmd *Command, success bool, elapsed time.Duration) {
	if success {
		e.applyUpdates(cmd)
	}

	e.mu.Lock()

	delete(e.running, cmd.ID())
	if cmd.Blocking() {
		e.blocked = false
	}

	status := cmd.Status()
	if status != StatusAborted && !cmd.SkipUndo() {
		e.undoStack = append(e.undoStack, cmd)
		// A fresh completion starts a new history branch.
		e.redoStack = nil
	}

	var orphaned []*Command
	if status == StatusTerminal {
		e.halted = true
		orphaned = e.pending
		e.pending = nil
	}

	e.dispatchLocked()
	e.mu.Unlock()

	// Commands stranded by a terminal halt still get their completion,
	// exactly once, as aborted with no side effects.
	for _, p := range orphaned {
		p.Abort()
		p.complete(StatusAborted, nil)
		e.notify(p, false, 0)
	}

	if success {
		for _, child := range cmd.takeChildren() {
			if err := e.Submit(child); err != nil {
				e.logger.Error("failed to submit follow-up command",
					"parent_id", cmd.ID(),
					"command_name", child.Name(),
					"error", err)
			}
		}
	}

	e.notify(cmd, success, elapsed)
}

// notify delivers the per-command callback and the executor-level hook.
func (e *Executor) notify(cmd *Command, success bool, elapsed time.Duration) {
	cmd.executeCallback(success)

	e.mu.Lock()
	hook := e.onExecuted
	e.mu.Unlock()
	if hook != nil {
		hook(cmd, success, elapsed)
	}
}

// applyUpdates hands a successful command's model updates to the applier.
func (e *Executor) applyUpdates(cmd *Command) {
	updates := cmd.Updates()
	if e.applier == nil || len(updates) == 0 {
		return
	}

	if err := e.applier.Apply(e.ctx, updates); err != nil {
		e.logger.Error("failed to apply model updates",
			"command_id", cmd.ID(),
			"command_name", cmd.Name(),
			"update_count", len(updates),
			"error", err)
	}
}

// Undo pops the most recent undoable command, invokes its undo logic
// synchronously, delivers its undo callback, and moves it to the redo
// stack. It fails with ErrUndo if the history is empty or the top command
// cannot be undone; neither case mutates the redo stack.
func (e *Executor) Undo(ctx context.Context) error {
	e.mu.Lock()
	if len(e.undoStack) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: undo stack is empty", ErrUndo)
	}

	top := e.undoStack[len(e.undoStack)-1]
	if !top.CanUndo() || top.SkipUndo() {
		e.mu.Unlock()
		return fmt.Errorf("%w: command %s cannot be undone", ErrUndo, top.Name())
	}

	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.mu.Unlock()

	if err := top.undo(ctx); err != nil {
		// Leave the command on the undo stack so the caller can retry.
		e.mu.Lock()
		e.undoStack = append(e.undoStack, top)
		e.mu.Unlock()
		return fmt.Errorf("undo of command %s failed: %w", top.Name(), err)
	}

	e.logger.Info("command undone",
		"command_id", top.ID(),
		"command_name", top.Name())

	top.executeUndoCallback()

	e.mu.Lock()
	e.redoStack = append(e.redoStack, top)
	e.mu.Unlock()
	return nil
}

// Redo pops the most recent undone command and re-executes it synchronously,
// reapplying its model updates on success. It fails with ErrRedo if the redo
// stack is empty.
func (e *Executor) Redo(ctx context.Context) error {
	e.mu.Lock()
	if len(e.redoStack) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: redo stack is empty", ErrRedo)
	}
	top := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.mu.Unlock()

	top.reset()
	if success := top.run(ctx); !success {
		return fmt.Errorf("redo of command %s failed: %w", top.Name(), top.Err())
	}

	e.applyUpdates(top)

	e.logger.Info("command redone",
		"command_id", top.ID(),
		"command_name", top.Name())

	e.mu.Lock()
	e.undoStack = append(e.undoStack, top)
	e.mu.Unlock()
	return nil
}

// AbortAll sets the abort flag on every pending and running command. It
// does not guarantee an immediate stop, only cooperative best effort;
// pending commands still flow through dispatch and complete as aborted.
func (e *Executor) AbortAll() {
	e.mu.Lock()
	targets := make([]*Command, 0, len(e.pending)+len(e.running))
	targets = append(targets, e.pending...)
	for _, cmd := range e.running {
		targets = append(targets, cmd)
	}
	e.mu.Unlock()

	e.logger.Info("aborting all commands", "count", len(targets))
	for _, cmd := range targets {
		cmd.Abort()
	}
}

// Halted reports whether a terminal command has stopped dispatch.
func (e *Executor) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// History returns summaries of the undo and redo stacks, most recent last.
func (e *Executor) History() (undo, redo []Summary) {
	e.mu.Lock()
	defer e.mu.Unlock()

	undo = make([]Summary, 0, len(e.undoStack))
	for _, cmd := range e.undoStack {
		undo = append(undo, summarize(cmd))
	}
	redo = make([]Summary, 0, len(e.redoStack))
	for _, cmd := range e.redoStack {
		redo = append(redo, summarize(cmd))
	}
	return undo, redo
}

// Stop aborts outstanding commands, cancels the execution context, and
// waits for workers to drain. Further submissions fail with ErrQueueClosed.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.AbortAll()
	e.cancelFunc()
	e.wg.Wait()
	e.logger.Info("executor stopped")
}

func summarize(cmd *Command) Summary {
	return Summary{
		ID:       cmd.ID(),
		Name:     cmd.Name(),
		Status:   cmd.Status(),
		CanUndo:  cmd.CanUndo() && !cmd.SkipUndo(),
		Blocking: cmd.Blocking(),
	}
}
