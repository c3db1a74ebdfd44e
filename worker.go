package rapsqlite

import "sync"

// job is the unit of work C5 hands to C4: a closure that already knows
// which connection, SQL text and parameters it needs, plus a one-shot
// completion channel the dispatcher's submit waits on.
type job struct {
	fn   func() (stepResult, error)
	done chan jobResult
}

type jobResult struct {
	res stepResult
	err error
}

// workerPool is a fixed set of goroutines (C4) standing in for the
// dedicated OS threads a cgo-based SQLite binding would need. Every
// worker reads from the same job channel — any worker may service any
// job, because the job already carries the connection it needs — so
// sizing has nothing to do with connection identity, only with how much
// blocking native work can run at once.
type workerPool struct {
	jobs chan *job
	stop chan struct{}
	wg   sync.WaitGroup
}

// newWorkerPool starts n workers. n is sized by the caller to
// max(2, poolSize) independent of how many connections actually exist.
func newWorkerPool(n int) *workerPool {
	if n < 1 {
		n = 1
	}
	wp := &workerPool{
		jobs: make(chan *job, n*4),
		stop: make(chan struct{}),
	}
	wp.wg.Add(n)
	for i := 0; i < n; i++ {
		go wp.run()
	}
	return wp
}

func (wp *workerPool) run() {
	defer wp.wg.Done()
	for {
		select {
		case j, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.execute(j)
		case <-wp.stop:
			return
		}
	}
}

// execute runs a job to completion on this worker. Jobs never yield and
// are never aborted mid-flight: a job that panics (should not happen) is
// recovered and reported as an internal EngineError, but the job is still
// considered "completed" from the dispatcher's point of view.
func (wp *workerPool) execute(j *job) {
	defer func() {
		if r := recover(); r != nil {
			wp.send(j, jobResult{err: internalEngineError(r)})
		}
	}()
	res, err := j.fn()
	wp.send(j, jobResult{res: res, err: err})
}

// send never blocks: done is always buffered with capacity 1, so a
// worker that finishes after its caller has stopped waiting (context
// canceled) still completes instantly and the result is simply discarded.
func (wp *workerPool) send(j *job, r jobResult) {
	select {
	case j.done <- r:
	default:
	}
}

func (wp *workerPool) close() {
	close(wp.stop)
	wp.wg.Wait()
}
