package execution

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Executor runs tasks away from the caller.
type Executor interface {
	Submit(task func()) error
}

// Executor errors.
var (
	ErrPoolSaturated = errors.New("worker pool queue is full")
	ErrPoolClosed    = errors.New("worker pool is shut down")
)

// GoroutineExecutor starts one goroutine per task.
type GoroutineExecutor struct{}

// Submit implements Executor.
func (GoroutineExecutor) Submit(task func()) error {
	go task()
	return nil
}

// WorkerPool runs tasks on a fixed number of workers fed by a bounded queue.
type WorkerPool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	group  errgroup.Group
}

// NewWorkerPool starts workers goroutines sharing a queue of queueSize tasks.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &WorkerPool{tasks: make(chan func(), queueSize)}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	return p
}

// Submit queues task without blocking. It fails with ErrPoolSaturated when the
// queue is full and with ErrPoolClosed after Shutdown.
func (p *WorkerPool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// Shutdown stops accepting tasks and waits for queued tasks to finish or ctx to end.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
