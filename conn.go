package rapsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// opKind identifies what a step() call does with its compiled statement.
type opKind int

const (
	opExec opKind = iota
	opFetchAll
	opFetchOne
	opFetchOptional
	opPragma
	opBegin
	opCommit
	opRollback
)

// stepResult is what a single step() produces: either an affected-row
// count (Exec-shaped operations) or a materialized row set (Fetch-shaped
// operations).
type stepResult struct {
	rowsAffected int64
	rows         []Row
}

// Conn (C3) owns one native database handle, one statement cache, and a
// busy flag. It is used by at most one worker goroutine at any instant —
// the pool (C6) and the transaction controller (C7) are the only parties
// that ever hand a *Conn to a caller, and both do so exclusively.
type Conn struct {
	raw   *sql.Conn
	cache *stmtCache
	cfg   Config
	busy  atomic.Bool
}

func newConn(ctx context.Context, db *sql.DB, cfg Config) (*Conn, error) {
	raw, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("rapsqlite: opening connection: %w", err)
	}
	return &Conn{
		raw:   raw,
		cache: newStmtCache(cfg.StmtCacheCapacity),
		cfg:   cfg,
	}, nil
}

// step compiles (or reuses) sqlText via the statement cache, binds args,
// executes it synchronously on the calling goroutine (a C4 worker for
// statements DB dispatches; the caller's own goroutine for statements run
// through a Tx and for BEGIN/COMMIT/ROLLBACK), and
// returns either an affected-row count or materialized rows depending on
// op. It panics if called re-entrantly on the same Conn, since that would
// violate the "one worker at a time" invariant the pool and transaction
// controller are both responsible for upholding.
func (c *Conn) step(ctx context.Context, sqlText string, args []any, op opKind) (stepResult, error) {
	if !c.busy.CompareAndSwap(false, true) {
		panic("rapsqlite: connection used by two workers at once")
	}
	defer c.busy.Store(false)

	var res stepResult
	err := withBusyRetry(ctx, c.cfg.BusyRetry, func() error {
		r, err := c.doStep(ctx, sqlText, args, op)
		res = r
		return err
	})
	if err != nil {
		return stepResult{}, translateEngineErr(err)
	}
	return res, nil
}

func (c *Conn) doStep(ctx context.Context, sqlText string, args []any, op opKind) (stepResult, error) {
	switch op {
	case opBegin, opCommit, opRollback, opPragma:
		_, err := c.raw.ExecContext(ctx, sqlText)
		return stepResult{}, err
	case opExec:
		stmt, _, err := c.cache.getOrPrepare(ctx, c.raw, sqlText)
		if err != nil {
			return stepResult{}, err
		}
		defer c.cache.release(sqlText)
		result, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return stepResult{}, err
		}
		n, _ := result.RowsAffected()
		return stepResult{rowsAffected: n}, nil
	case opFetchAll, opFetchOne, opFetchOptional:
		stmt, _, err := c.cache.getOrPrepare(ctx, c.raw, sqlText)
		if err != nil {
			return stepResult{}, err
		}
		defer c.cache.release(sqlText)
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return stepResult{}, err
		}
		defer rows.Close()
		materialized, err := materializeRows(rows)
		if err != nil {
			return stepResult{}, err
		}
		return stepResult{rows: materialized}, nil
	default:
		return stepResult{}, fmt.Errorf("rapsqlite: unknown op kind %d", op)
	}
}

// close finalizes every cached statement and closes the underlying
// handle. Called when a connection is dropped after an internal error,
// or when the pool drains.
func (c *Conn) close() error {
	c.cache.clear()
	return c.raw.Close()
}
