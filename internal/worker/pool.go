// Package worker provides a bounded pool for running independent tasks, used
// by the cross-validation runner to evaluate folds in parallel.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Submit after the pool has been stopped.
var ErrStopped = errors.New("worker pool is stopped")

// Task is a unit of work executed by a pool worker.
type Task func() error

// Pool runs tasks on a fixed number of goroutines. Task errors are collected
// and the first one is returned from Wait; tasks keep running after a
// failure so results stay complete for diagnostics.
type Pool struct {
	workers int
	tasks   chan Task

	mu       sync.Mutex
	firstErr error

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a pool with the given worker count. A count below one is
// raised to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. It must be called exactly once before Submit.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if err := task(); err != nil {
				p.mu.Lock()
				if p.firstErr == nil {
					p.firstErr = err
				}
				p.mu.Unlock()
			}
		}
	}
}

// Submit queues a task. It blocks when the queue is full and fails only
// after Stop.
func (p *Pool) Submit(task Task) error {
	select {
	case <-p.ctx.Done():
		return ErrStopped
	case p.tasks <- task:
		return nil
	}
}

// Wait closes the queue, blocks until all submitted tasks have finished, and
// returns the first task error if any occurred.
func (p *Pool) Wait() error {
	close(p.tasks)
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

// Stop cancels outstanding work and waits for the workers to exit. Queued
// tasks that have not started are discarded.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}
