// Package rapsqlite provides an asynchronous, connection-pooled binding
// over modernc.org/sqlite for Go services that want SQLite without
// letting a single blocking call stall their whole event loop.
//
// # Overview
//
// rapsqlite is built for services that embed SQLite directly rather than
// talking to a database server: CLIs, edge workers, single-node services,
// and tests that want a real engine instead of a mock. It dispatches every
// statement issued through DB's own methods onto a small worker pool, so
// those calls never run native I/O on the calling goroutine (statements
// issued through a Tx run on the caller's goroutine), and it owns
// connection pooling itself instead
// of leaning on database/sql's, since database/sql has no notion of the
// "one transaction at a time, queued" semantics SQLite's single-writer
// model calls for.
//
// # Key Features
//
// ## Connection Management
//   - A fixed-capacity connection pool with configurable size and acquire
//     timeout
//   - Connection leak detection via LeakDetector
//   - Health checks via HealthCheck and continuous HealthMonitor
//
// ## Transaction Support
//   - Begin/Commit/Rollback with FIFO queuing across concurrent callers
//   - Transaction-scoped Execute/FetchAll/FetchOne/FetchOptional
//   - Transaction wraps fn in Begin/Commit/Rollback with panic-safe
//     rollback
//
// ## Performance
//   - Per-connection LRU prepared-statement cache
//   - Jittered exponential backoff retrying SQLITE_BUSY/SQLITE_LOCKED
//   - BulkInsert for multi-row inserts in a single statement
//
// ## Observability
//   - OpenTelemetry spans and metrics for every step dispatched through DB,
//     and metrics for every commit and rollback
//   - Structured slog logging, including slow-step detection
//
// # Quick Start
//
//	db, err := rapsqlite.Open("app.db", rapsqlite.WithPoolSize(4))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	_, err = db.Execute(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", "Alice", 30)
//
// # Transactions
//
//	err = db.Transaction(ctx, func(tx *rapsqlite.Tx) error {
//		if _, err := tx.Execute(ctx, "UPDATE accounts SET balance = balance - ? WHERE id = ?", amount, fromID); err != nil {
//			return err
//		}
//		_, err := tx.Execute(ctx, "UPDATE accounts SET balance = balance + ? WHERE id = ?", amount, toID)
//		return err
//	})
package rapsqlite

// Version returns the current library version.
func Version() string { return "v0.1.0" }
