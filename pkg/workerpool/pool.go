// Package workerpool implements the fixed-size goroutine pool the
// controller runs every remote-callable operation through. Submit returns a
// Future immediately; the operation itself runs on one of a bounded number
// of worker goroutines, the same bounded-concurrency shape the teacher used
// for a connection pool, repurposed here for one-shot tasks instead of
// long-lived connections.
package workerpool

import (
	"context"
	"sync"
	"time"

	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// Task is a unit of work submitted to the pool.
type Task func(ctx context.Context) (any, error)

// Future holds the eventual result of a submitted Task.
type Future struct {
	done   chan struct{}
	result any
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result any, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Wait blocks until the task completes or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get blocks until the task completes.
func (f *Future) Get() (any, error) {
	<-f.done
	return f.result, f.err
}

type job struct {
	task   Task
	future *Future
	queued time.Time
}

// Pool runs submitted tasks on a bounded number of worker goroutines.
type Pool struct {
	config Config
	queue  chan job
	stats  *Stats

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a pool and starts its worker goroutines.
func New(config Config) (*Pool, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		config: config,
		queue:  make(chan job, config.QueueSize),
		stats:  newStats(),
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p, nil
}

// Submit enqueues task and returns a Future for its result. If the queue is
// full, Submit blocks up to config.SubmitTimeout before returning
// ErrPoolTimeout.
func (p *Pool) Submit(ctx context.Context, task Task) (*Future, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, qerrors.ErrPoolClosed
	}
	p.mu.Unlock()

	future := newFuture()
	j := job{task: task, future: future, queued: time.Now()}

	timeout := p.config.SubmitTimeout
	if timeout <= 0 {
		select {
		case p.queue <- j:
			p.stats.recordSubmit()
			if p.config.Observer != nil {
				p.config.Observer.OnSubmit()
			}
			return future, nil
		default:
			p.stats.recordQueueFull()
			if p.config.Observer != nil {
				p.config.Observer.OnQueueFull()
			}
			return nil, qerrors.ErrPoolTimeout
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.queue <- j:
		p.stats.recordSubmit()
		if p.config.Observer != nil {
			p.config.Observer.OnSubmit()
		}
		return future, nil
	case <-timer.C:
		p.stats.recordQueueFull()
		if p.config.Observer != nil {
			p.config.Observer.OnQueueFull()
		}
		return nil, qerrors.ErrPoolTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubmitWait submits task and blocks until it completes.
func (p *Pool) SubmitWait(ctx context.Context, task Task) (any, error) {
	future, err := p.Submit(ctx, task)
	if err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

// Close stops accepting new tasks and waits for in-flight tasks to finish.
// Queued but unstarted tasks are dropped.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	return nil
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() StatsSnapshot {
	return p.stats.Snapshot()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.queue {
		waitDuration := time.Since(j.queued)
		p.stats.recordDequeue(waitDuration)

		start := time.Now()
		result, err := j.task(context.Background())
		duration := time.Since(start)

		p.stats.recordCompletion(duration, err == nil)
		if p.config.Observer != nil {
			p.config.Observer.OnComplete(duration, err == nil)
		}

		j.future.complete(result, err)
	}
}
