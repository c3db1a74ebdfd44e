package rapsqlite

import "context"

// dispatcher is the submit-and-await primitive (C5) bridging a host
// goroutine with the worker pool (C4). Every statement issued through DB's
// own methods suspends at exactly one place: dispatcher.submit. Statements
// run through a *Tx handle, and BEGIN/COMMIT/ROLLBACK, call Conn.step
// directly on the calling goroutine instead.
type dispatcher struct {
	workers *workerPool
}

func newDispatcher(workerCount int) *dispatcher {
	return &dispatcher{workers: newWorkerPool(workerCount)}
}

// submit pushes fn onto the worker queue and suspends the caller until a
// worker completes it or ctx is done first. If ctx is done first, submit
// returns ctx.Err() immediately but fn still runs to completion on its
// worker — mid-statement cancellation of SQLite can leave transient
// locks, so the core always finishes what it started and simply discards
// the result when nobody is left waiting for it.
func (d *dispatcher) submit(ctx context.Context, fn func() (stepResult, error)) (stepResult, error) {
	j := &job{fn: fn, done: make(chan jobResult, 1)}

	select {
	case d.workers.jobs <- j:
	case <-ctx.Done():
		return stepResult{}, ctx.Err()
	}

	select {
	case r := <-j.done:
		return r.res, r.err
	case <-ctx.Done():
		return stepResult{}, ctx.Err()
	}
}

func (d *dispatcher) close() { d.workers.close() }
