package execution

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"cmdengine/internal/logger"
	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/tree"
)

// Coordinator runs resolved commands.
type Coordinator interface {
	// Coordinate dispatches resolved and returns its future. It never panics
	// because of a handler.
	Coordinate(ctx context.Context, resolved *tree.Resolved) *Future
}

// SynchronousCoordinator runs handlers on the calling goroutine. The returned
// future is already complete.
type SynchronousCoordinator struct {
	logger *log.Logger
}

// NewSynchronous creates a synchronous coordinator.
func NewSynchronous() *SynchronousCoordinator {
	return &SynchronousCoordinator{logger: logger.NewStyledLogger("Coordinator")}
}

// Coordinate implements Coordinator.
func (c *SynchronousCoordinator) Coordinate(ctx context.Context, resolved *tree.Resolved) *Future {
	f := newFuture(resolved)
	run(ctx, c.logger, f, resolved)
	return f
}

// DeferredCoordinator submits handlers to an executor and returns immediately.
// Commands built as synchronous still run on the calling goroutine.
type DeferredCoordinator struct {
	executor Executor
	logger   *log.Logger
}

// NewDeferred creates a deferred coordinator. A nil executor starts one goroutine
// per invocation.
func NewDeferred(executor Executor) *DeferredCoordinator {
	if executor == nil {
		executor = GoroutineExecutor{}
	}
	return &DeferredCoordinator{executor: executor, logger: logger.NewStyledLogger("Coordinator")}
}

// Coordinate implements Coordinator.
func (c *DeferredCoordinator) Coordinate(ctx context.Context, resolved *tree.Resolved) *Future {
	f := newFuture(resolved)
	if resolved.Command.Policy() == tree.PolicySynchronous {
		run(ctx, c.logger, f, resolved)
		return f
	}
	if err := c.executor.Submit(func() { run(ctx, c.logger, f, resolved) }); err != nil {
		c.logger.Warn("Could not schedule command", "command", resolved.Command.RootName(), "error", err)
		f.complete(StateFailed, fmt.Errorf("scheduling %s: %w", resolved.Command.RootName(), err))
	}
	return f
}

// run drives one invocation from pending to a terminal state.
func run(ctx context.Context, lg *log.Logger, f *Future, resolved *tree.Resolved) {
	if ctx.Err() != nil {
		f.complete(StateCancelled, ctx.Err())
		return
	}
	cmd, cc := resolved.Command, resolved.Context

	// The sender's permissions may have changed since resolution.
	if !cc.HasPermission(cmd.Permission()) {
		f.complete(StateFailed, &cmdtypes.CommandError{
			Kind:       cmdtypes.NoPermission,
			Index:      -1,
			Path:       resolved.Node.Path(),
			Permission: cmd.Permission().String(),
		})
		return
	}
	if !f.dispatch() {
		return
	}

	lg.Debug("Dispatching command", "command", cmd.RootName(), "invocation", f.id)
	if err := invoke(ctx, cmd, cc); err != nil {
		lg.Debug("Command failed", "command", cmd.RootName(), "invocation", f.id, "error", err)
		f.complete(StateFailed, &cmdtypes.CommandError{
			Kind:  cmdtypes.HandlerException,
			Index: -1,
			Path:  resolved.Node.Path(),
			Cause: err,
		})
		return
	}
	f.complete(StateSucceeded, nil)
}

// invoke calls the handler and converts a panic into an error.
func invoke(ctx context.Context, cmd *tree.Command, cc *cmdtypes.CommandContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return cmd.Handler()(ctx, cc)
}
