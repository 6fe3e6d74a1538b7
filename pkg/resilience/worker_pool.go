package resilience

import (
	"context"
	"errors"
	"sync"
)

var ErrWorkerPoolClosed = errors.New("worker pool is closed")

// WorkerPool bounds how many jobs run at once.
type WorkerPool struct {
	jobs chan func()
	mu   sync.RWMutex
	shut bool
	once sync.Once
	wg   sync.WaitGroup
}

func NewWorkerPool(workers, queueSize int) *WorkerPool {
	workers = max(workers, 1)
	if queueSize <= 0 {
		queueSize = workers
	}

	p := &WorkerPool{jobs: make(chan func(), queueSize)}
	p.wg.Add(workers)
	for range workers {
		go p.work()
	}
	return p
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit queues job without waiting for it to run.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.shut {
		return ErrWorkerPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Do queues job and blocks until it has finished. If ctx ends before the job
// could be queued, the job never runs and ctx.Err() is returned.
func (p *WorkerPool) Do(ctx context.Context, job func()) error {
	done := make(chan struct{})
	if err := p.Submit(ctx, func() {
		defer close(done)
		job()
	}); err != nil {
		return err
	}
	<-done
	return nil
}

func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.shut = true
		close(p.jobs)
		p.mu.Unlock()
	})
}

func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
