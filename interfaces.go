package rapsqlite

import "context"

// Database defines the surface *DB satisfies. It exists mainly for
// dependency injection in tests: code that only needs to run statements
// against something database-shaped can depend on Database instead of the
// concrete *DB, and substitute a fake in unit tests.
//
// Example usage:
//
//	var db Database = realDB
//	n, err := db.Execute(ctx, "INSERT INTO users (name) VALUES (?)", "Alice")
type Database interface {
	// Execute runs a statement that does not return rows.
	//
	// Parameters:
	//   - ctx: context for cancellation and timeouts
	//   - sqlText: SQL text with ? placeholders
	//   - args: values to bind to placeholders
	//
	// Returns the number of rows the statement affected, or an error.
	Execute(ctx context.Context, sqlText string, args ...any) (int64, error)

	// FetchAll runs a query and materializes every row it produces.
	FetchAll(ctx context.Context, sqlText string, args ...any) ([]Row, error)

	// FetchOne runs a query and returns its first row, or NoRowError if it
	// produced none.
	FetchOne(ctx context.Context, sqlText string, args ...any) (Row, error)

	// FetchOptional runs a query and returns its first row, or a nil Row
	// if it produced none.
	FetchOptional(ctx context.Context, sqlText string, args ...any) (Row, error)

	// Begin opens a transaction, queuing behind any transaction already
	// active rather than failing.
	Begin(ctx context.Context) (*Tx, error)

	// Transaction runs fn inside a transaction, committing on a nil
	// return and rolling back otherwise.
	Transaction(ctx context.Context, fn func(*Tx) error) error

	// Close releases every resource the database holds: its connection
	// pool, its worker pool, and the underlying engine handle.
	Close() error
}

var _ Database = (*DB)(nil)
