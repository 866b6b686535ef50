// Package worker runs chapter audits concurrently and paces calls to the
// review providers.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type task struct {
	seq int
	job Job
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are returned in submission order.
type Pool struct {
	workers  int
	jobQueue chan task
	wg       sync.WaitGroup

	ctx        context.Context
	cancelFunc context.CancelFunc

	queueMu   sync.Mutex // guards submitted and queue closing
	submitted int
	closed    bool

	resultsMu sync.Mutex
	results   map[int]Result
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs stop when ctx is done
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan task, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		results:    make(map[int]Result),
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := t.job.Execute(p.ctx)
			p.resultsMu.Lock()
			p.results[t.seq] = result
			p.resultsMu.Unlock()
		}
	}
}

// Submit queues a job. It reports false when the pool no longer accepts
// work.
func (p *Pool) Submit(job Job) bool {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	if p.closed {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- task{seq: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait waits for all submitted jobs to complete and returns their results
// in submission order. Jobs dropped by Shutdown have no result.
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.wg.Wait()

	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	results := make([]Result, 0, len(p.results))
	for seq := 0; seq < p.submitted; seq++ {
		if r, ok := p.results[seq]; ok {
			results = append(results, r)
		}
	}
	return results
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.closeQueue()
	p.wg.Wait()
}

func (p *Pool) closeQueue() {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}
