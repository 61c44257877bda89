// Package execution dispatches resolved commands to their handlers, either on the
// calling goroutine or on an executor, and reports each outcome exactly once.
package execution

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"cmdengine/pkg/cmdtypes"
	"cmdengine/pkg/tree"
)

// State is the lifecycle state of one invocation.
type State int32

const (
	StatePending State = iota
	StateDispatched
	StateSucceeded
	StateFailed
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDispatched:
		return "dispatched"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Outcome is the final result of one invocation.
type Outcome struct {
	ID      uuid.UUID
	State   State
	Command *tree.Command
	Context *cmdtypes.CommandContext
	// Err is nil on success. Resolution and handler failures are *cmdtypes.CommandError.
	Err error
}

// Succeeded reports whether the handler ran and returned nil.
func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Future is the pending outcome of one invocation. It completes exactly once.
type Future struct {
	id      uuid.UUID
	state   atomic.Int32
	once    sync.Once
	done    chan struct{}
	outcome Outcome
	command *tree.Command
	cc      *cmdtypes.CommandContext
}

func newFuture(resolved *tree.Resolved) *Future {
	f := &Future{id: uuid.New(), done: make(chan struct{})}
	if resolved != nil {
		f.command = resolved.Command
		f.cc = resolved.Context
	}
	return f
}

// Failed returns a future already completed with err, for invocations that failed
// before reaching a coordinator.
func Failed(err error) *Future {
	f := newFuture(nil)
	f.complete(StateFailed, err)
	return f
}

// ID returns the invocation ID.
func (f *Future) ID() uuid.UUID { return f.id }

// State returns the current state.
func (f *Future) State() State { return State(f.state.Load()) }

// Done is closed when the outcome is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the outcome is available or ctx ends.
func (f *Future) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-f.done:
		return f.outcome, nil
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("waiting for invocation %s: %w", f.id, ctx.Err())
	}
}

// Outcome returns the outcome if the future is complete.
func (f *Future) Outcome() (Outcome, bool) {
	select {
	case <-f.done:
		return f.outcome, true
	default:
		return Outcome{}, false
	}
}

// Cancel prevents a pending invocation from being dispatched. It returns false
// once the handler has been dispatched or the future is complete.
func (f *Future) Cancel() bool {
	if !f.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	f.finish(StateCancelled, context.Canceled)
	return true
}

// dispatch moves the future from pending to dispatched.
func (f *Future) dispatch() bool {
	return f.state.CompareAndSwap(int32(StatePending), int32(StateDispatched))
}

// complete records a terminal state unless the future is already terminal.
func (f *Future) complete(state State, err error) {
	for {
		current := State(f.state.Load())
		if current.Terminal() {
			return
		}
		if f.state.CompareAndSwap(int32(current), int32(state)) {
			f.finish(state, err)
			return
		}
	}
}

func (f *Future) finish(state State, err error) {
	f.once.Do(func() {
		f.outcome = Outcome{ID: f.id, State: state, Command: f.command, Context: f.cc, Err: err}
		close(f.done)
	})
}
