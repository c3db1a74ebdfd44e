package rapsqlite

import (
	"container/list"
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"
)

// pool (C6) owns a bounded number of Conns and hands them out to callers
// one at a time. acquire never opens a connection past capacity:
// outstanding+idle stays within it, and a waiter blocks (up to
// ConnectionTimeout) rather than letting the pool overshoot. Lowering the
// capacity with setCapacity does not close connections already open, so
// the count can stay above a lowered capacity.
type pool struct {
	mu          sync.Mutex
	idle        *list.List // of *Conn
	outstanding int
	capacity    int
	timeout     time.Duration

	db     *sql.DB
	cfg    Config
	waiter chan struct{} // buffered with one slot; release and discard each signal one waiter

	closed bool
}

func newPool(db *sql.DB, cfg Config) *pool {
	capacity := defaultWorkerCount
	if cfg.PoolSize != nil {
		capacity = *cfg.PoolSize
	}
	timeout := time.Duration(math.MaxInt64) // nil ConnectionTimeout: no acquire deadline
	if cfg.ConnectionTimeout != nil {
		timeout = *cfg.ConnectionTimeout
	}
	return &pool{
		idle:     list.New(),
		capacity: capacity,
		timeout:  timeout,
		db:       db,
		cfg:      cfg,
		waiter:   make(chan struct{}, 1),
	}
}

// acquire returns an idle Conn if one exists, opens a fresh one if capacity
// allows, or blocks until one of those becomes possible or ConnectionTimeout
// elapses. A capacity of zero means every acquire blocks until the timeout,
// since no connection can ever be opened.
func (p *pool) acquire(ctx context.Context) (*Conn, error) {
	deadline := time.Now().Add(p.timeout)
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, newOperationalError("pool is closed")
		}
		if el := p.idle.Front(); el != nil {
			p.idle.Remove(el)
			p.outstanding++
			p.mu.Unlock()
			return el.Value.(*Conn), nil
		}
		if p.outstanding < p.capacity {
			p.outstanding++
			p.mu.Unlock()
			conn, err := newConn(ctx, p.db, p.cfg)
			if err != nil {
				p.mu.Lock()
				p.outstanding--
				p.mu.Unlock()
				return nil, err
			}
			return conn, nil
		}
		p.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &PoolTimeoutError{Waited: p.timeout.String()}
		}
		timer := time.NewTimer(remaining)
		select {
		case <-p.waiter:
			timer.Stop()
		case <-timer.C:
			return nil, &PoolTimeoutError{Waited: p.timeout.String()}
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// release returns conn to the idle queue and wakes one waiter, if any.
func (p *pool) release(conn *Conn) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.close()
		return
	}
	p.outstanding--
	p.idle.PushBack(conn)
	p.mu.Unlock()

	select {
	case p.waiter <- struct{}{}:
	default:
	}
}

// discard drops conn instead of returning it to the idle queue — used
// when a connection's state is suspect after an internal error and should
// not be reused.
func (p *pool) discard(conn *Conn) {
	p.mu.Lock()
	p.outstanding--
	p.mu.Unlock()
	_ = conn.close()

	select {
	case p.waiter <- struct{}{}:
	default:
	}
}

// poolStats reports the pool's current shape for health reporting (§11).
type poolStats struct {
	Idle        int
	Outstanding int
	Capacity    int
}

func (p *pool) stats() poolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return poolStats{Idle: p.idle.Len(), Outstanding: p.outstanding, Capacity: p.capacity}
}

func (p *pool) setCapacity(n int) error {
	if err := validatePoolSize(n); err != nil {
		return err
	}
	p.mu.Lock()
	p.capacity = n
	p.mu.Unlock()
	return nil
}

func (p *pool) getTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout
}

func (p *pool) setTimeout(d time.Duration) error {
	if err := validateConnectionTimeout(d); err != nil {
		return err
	}
	p.mu.Lock()
	p.timeout = d
	p.mu.Unlock()
	return nil
}

// drain closes every idle connection and marks the pool closed. Connections
// still outstanding are closed as they are released.
func (p *pool) drain(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	var firstErr error
	for el := p.idle.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*Conn).close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.idle.Init()
	p.mu.Unlock()
	if firstErr != nil {
		return fmt.Errorf("rapsqlite: draining pool: %w", firstErr)
	}
	return nil
}
