package rapsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DB is the public façade (§9): a single open database with its own
// dispatcher, connection pool, and transaction controller. DB's own
// statement methods funnel through dispatcher.submit and run on a worker
// goroutine, so callers never see the workers or the connections they
// borrow. Statements issued through a *Tx handle, and the BEGIN, COMMIT
// and ROLLBACK of a transaction, are not dispatched: they run on the
// calling goroutine.
type DB struct {
	cfg     Config
	raw     *sql.DB
	pool    *pool
	disp    *dispatcher
	tx      *txController
	tel     *telemetry
	log     *dbLogger
	poolMet *poolMetrics
}

// Open creates the engine handle, the connection pool, and the worker
// pool. It opens no connection itself: each pooled connection is opened on
// first demand, and the engine settings Config carries in the DSN are
// applied as each connection opens.
func Open(path string, opts ...Option) (*DB, error) {
	cfg := DefaultConfig(path)
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.PoolSize != nil {
		if err := validatePoolSize(*cfg.PoolSize); err != nil {
			return nil, err
		}
	}
	if cfg.ConnectionTimeout != nil {
		if err := validateConnectionTimeout(*cfg.ConnectionTimeout); err != nil {
			return nil, err
		}
	}

	raw, err := openEngineDB(cfg)
	if err != nil {
		return nil, err
	}

	workerCount := defaultWorkerCount
	if cfg.PoolSize != nil && *cfg.PoolSize > workerCount {
		workerCount = *cfg.PoolSize
	}

	p := newPool(raw, cfg)
	db := &DB{
		cfg:  cfg,
		raw:  raw,
		pool: p,
		disp: newDispatcher(workerCount),
		tx:   newTxController(p),
		tel:  newTelemetry(cfg.Telemetry),
		log:  newDBLogger(cfg.Logging),
	}
	db.poolMet = newPoolMetrics(cfg.Telemetry, p)
	db.tx.tel = db.tel
	db.tx.log = db.log
	return db, nil
}

// Execute runs a statement that does not return rows and reports the
// number of rows it affected.
func (db *DB) Execute(ctx context.Context, sqlText string, args ...any) (int64, error) {
	bound, err := bindArgs(args)
	if err != nil {
		return 0, err
	}
	res, err := db.run(ctx, sqlText, bound, opExec)
	if err != nil {
		return 0, err
	}
	return res.rowsAffected, nil
}

// ExecuteMany runs sqlText once per element of argSets, each on its own
// dispatched step, and reports the cumulative rows affected. It stops and
// returns the first error encountered.
func (db *DB) ExecuteMany(ctx context.Context, sqlText string, argSets [][]any) (int64, error) {
	var total int64
	for _, args := range argSets {
		n, err := db.Execute(ctx, sqlText, args...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// FetchAll runs a query and materializes every row it produces.
func (db *DB) FetchAll(ctx context.Context, sqlText string, args ...any) ([]Row, error) {
	bound, err := bindArgs(args)
	if err != nil {
		return nil, err
	}
	res, err := db.run(ctx, sqlText, bound, opFetchAll)
	if err != nil {
		return nil, err
	}
	return res.rows, nil
}

// FetchOne runs a query and returns its first row, or NoRowError if it
// produced none.
func (db *DB) FetchOne(ctx context.Context, sqlText string, args ...any) (Row, error) {
	rows, err := db.FetchAll(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NoRowError{}
	}
	return rows[0], nil
}

// FetchOptional runs a query and returns its first row, or nil if it
// produced none.
func (db *DB) FetchOptional(ctx context.Context, sqlText string, args ...any) (Row, error) {
	rows, err := db.FetchAll(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// run dispatches sqlText+args+op onto a worker and reports the result. Per
// SPEC_FULL.md §4.7's state table, a statement issued against DB while a
// transaction is active participates in that transaction rather than
// running on a fresh pooled connection — so run first checks for an active
// *Tx and, if one exists, routes the step onto its pinned connection
// instead of acquiring from the pool. Only when no transaction is active
// does run borrow and return its own connection, returning it even on
// error (it is dropped instead only after a recovered worker panic), so a
// single failed statement never leaks a connection out of the pool.
func (db *DB) run(ctx context.Context, sqlText string, args []any, op opKind) (stepResult, error) {
	if tx := db.tx.activeTx(); tx != nil {
		start := time.Now()
		res, err := db.disp.submit(ctx, func() (stepResult, error) {
			return tx.step(ctx, sqlText, args, op)
		})
		elapsed := time.Since(start)
		db.tel.recordStep(ctx, op, elapsed, err)
		db.log.logStep(ctx, op, sqlText, len(args), elapsed, err)
		return res, err
	}

	conn, err := db.pool.acquire(ctx)
	if err != nil {
		return stepResult{}, err
	}
	start := time.Now()
	res, err := db.disp.submit(ctx, func() (stepResult, error) {
		return conn.step(ctx, sqlText, args, op)
	})
	elapsed := time.Since(start)
	db.tel.recordStep(ctx, op, elapsed, err)
	db.log.logStep(ctx, op, sqlText, len(args), elapsed, err)
	if err != nil {
		if engErr, ok := err.(*EngineError); ok && engErr.Code == "internal" {
			db.pool.discard(conn)
		} else {
			db.pool.release(conn)
		}
		return stepResult{}, err
	}
	db.pool.release(conn)
	return res, nil
}

// Begin opens a transaction, queuing behind any transaction already in
// progress so that every caller's begin() eventually succeeds — see tx.go.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	return db.tx.begin(ctx)
}

// TryBegin opens a transaction, failing immediately with an
// OperationalError if one is already active instead of queuing.
func (db *DB) TryBegin(ctx context.Context) (*Tx, error) {
	return db.tx.tryBegin(ctx)
}

// InTransaction reports whether a transaction has begun and its Commit or
// Rollback has not yet finished.
func (db *DB) InTransaction() bool {
	return db.tx.inTransaction()
}

// Transaction runs fn inside a transaction, committing on a nil return and
// rolling back otherwise — including when fn panics, in which case the
// panic is re-thrown after rollback.
func (db *DB) Transaction(ctx context.Context, fn func(*Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rapsqlite: rollback after %w also failed: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

// Cursor returns a lightweight handle sharing this DB's pool and
// dispatcher, for callers that want a value to pass around without
// exposing the whole DB surface.
func (db *DB) Cursor() *Cursor {
	return &Cursor{db: db}
}

// SetPragma applies "PRAGMA name = value", routed through run() the same
// as any other statement — so it runs on the pinned transaction
// connection if one is active, and on a borrowed pool connection
// otherwise. Some pragmas (journal_mode chief among them) are
// connection-scoped in SQLite, so this affects only the connection it
// happens to run on unless the pragma is one of the database-wide ones
// (e.g. journal_mode=WAL).
func (db *DB) SetPragma(ctx context.Context, name, value string) error {
	_, err := db.run(ctx, fmt.Sprintf("PRAGMA %s = %s", name, value), nil, opPragma)
	return err
}

// PoolSize reports the pool's configured connection capacity.
func (db *DB) PoolSize() int { return db.pool.stats().Capacity }

// SetPoolSize changes the live pool's connection capacity. It rejects
// negative values. Lowering the capacity stops new connections from being
// opened but does not close connections already open: they keep being
// handed out from the idle queue. With zero, acquire therefore blocks
// until ConnectionTimeout elapses only once no connection is idle.
func (db *DB) SetPoolSize(n int) error { return db.pool.setCapacity(n) }

// ConnectionTimeout reports how long acquire() waits before giving up.
func (db *DB) ConnectionTimeout() time.Duration { return db.pool.getTimeout() }

// SetConnectionTimeout changes how long acquire() waits before giving up.
func (db *DB) SetConnectionTimeout(d time.Duration) error { return db.pool.setTimeout(d) }

// Stats reports the pool's current idle/outstanding/capacity shape.
type Stats struct {
	Idle        int
	Outstanding int
	Capacity    int
}

// Stats returns a snapshot of pool occupancy, for health checks and leak
// detection (§11).
func (db *DB) Stats() Stats {
	s := db.pool.stats()
	return Stats{Idle: s.Idle, Outstanding: s.Outstanding, Capacity: s.Capacity}
}

// Close drains the pool, stops the worker pool, and closes the engine
// handle. Call it once: a second call panics when it stops the
// already-stopped worker pool.
func (db *DB) Close() error {
	ctx := context.Background()
	_ = db.poolMet.close()
	if err := db.pool.drain(ctx); err != nil {
		return err
	}
	db.disp.close()
	return db.raw.Close()
}
