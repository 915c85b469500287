// Package parallel runs index ranges on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a set of long-lived goroutines serving Range calls.
//
// Every participant of a Range claims the next unprocessed index, so leaves
// of very different sizes spread over the workers without pre-partitioning.
// The calling goroutine always takes part, which keeps nested Range calls
// from waiting on busy workers.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
	jobs    chan *rangeJob
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

type rangeJob struct {
	n    int
	fn   func(i int)
	next atomic.Int64
	wg   sync.WaitGroup
}

func (j *rangeJob) run() {
	defer j.wg.Done()
	for {
		i := int(j.next.Add(1) - 1)
		if i >= j.n {
			return
		}
		j.fn(i)
	}
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		jobs:    make(chan *rangeJob),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case job := <-p.jobs:
			job.run()
		}
	}
}

// Range calls fn(i) for every i in [0, n) and returns after all calls
// completed. A closed pool runs the calls on the calling goroutine.
func (p *Pool) Range(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	job := &rangeJob{n: n, fn: fn}
	helpers := 0
	if p.running.Load() {
		helpers = min(p.workers, n-1)
	}

	job.wg.Add(helpers + 1)
	for range helpers {
		select {
		case p.jobs <- job:
		default:
			// no idle worker
			job.wg.Done()
		}
	}
	job.run()
	job.wg.Wait()
}

// Close stops the workers. Safe to call twice.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}
