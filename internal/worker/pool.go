// Package worker runs ingestion jobs on a bounded in-process pool.
package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull signals that the job queue is at capacity.
	ErrQueueFull = errors.New("worker queue full")
	// ErrStopped signals a submit after shutdown.
	ErrStopped = errors.New("worker pool stopped")
)

// Task is a unit of background work.
type Task func()

// Pool fans tasks out to a fixed set of worker goroutines over a bounded queue.
type Pool struct {
	tasks   chan Task
	workers int
	logger  *zap.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}
	return &Pool{
		tasks:   make(chan Task, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("Worker pool started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.tasks)))
}

// Submit enqueues a task without blocking. Returns ErrQueueFull when the
// queue is at capacity and ErrStopped after Stop.
func (p *Pool) Submit(t func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(id, t)
	}
}

// run executes one task; a panicking job must not take the worker down.
func (p *Pool) run(id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker task panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	t()
}
