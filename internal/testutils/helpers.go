package testutils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"cmdengine/pkg/cmdtypes"
)

// ManualExecutor holds submitted tasks until RunAll is called.
type ManualExecutor struct {
	mu    sync.Mutex
	tasks []func()
}

// Submit implements execution.Executor.
func (e *ManualExecutor) Submit(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return nil
}

// Pending returns the number of tasks waiting to run.
func (e *ManualExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// RunAll runs and clears the queued tasks in submission order.
func (e *ManualExecutor) RunAll() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// Recorder is a command handler that counts calls and keeps the last context.
type Recorder struct {
	calls atomic.Int32
	last  atomic.Pointer[cmdtypes.CommandContext]
}

// Handle records the invocation.
func (r *Recorder) Handle(_ context.Context, cc *cmdtypes.CommandContext) error {
	r.calls.Add(1)
	r.last.Store(cc)
	return nil
}

// Calls returns how many times Handle ran.
func (r *Recorder) Calls() int {
	return int(r.calls.Load())
}

// Last returns the context of the latest invocation, or nil.
func (r *Recorder) Last() *cmdtypes.CommandContext {
	return r.last.Load()
}

// CreateTempFile writes content to filename inside a fresh temporary directory.
func CreateTempFile(t *testing.T, filename, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "Should create temp file successfully")
	return path
}
