package rapsqlite

import "context"

// Cursor is a lightweight handle over a DB's pool and dispatcher. Unlike
// Tx, it pins no connection of its own: every call delegates straight to
// the same DB methods everything else uses, which means a Cursor is just
// as transaction-aware as DB itself — if a transaction is active when a
// Cursor call runs, it routes onto the pinned transaction connection the
// same way db.Execute/db.FetchAll do. It exists for callers that want to
// pass a narrower value around than the whole *DB.
type Cursor struct {
	db *DB
}

// Execute runs a statement through the cursor's underlying DB.
func (c *Cursor) Execute(ctx context.Context, sqlText string, args ...any) (int64, error) {
	return c.db.Execute(ctx, sqlText, args...)
}

// FetchAll runs a query through the cursor's underlying DB.
func (c *Cursor) FetchAll(ctx context.Context, sqlText string, args ...any) ([]Row, error) {
	return c.db.FetchAll(ctx, sqlText, args...)
}

// FetchOne runs a query through the cursor's underlying DB.
func (c *Cursor) FetchOne(ctx context.Context, sqlText string, args ...any) (Row, error) {
	return c.db.FetchOne(ctx, sqlText, args...)
}

// FetchOptional runs a query through the cursor's underlying DB.
func (c *Cursor) FetchOptional(ctx context.Context, sqlText string, args ...any) (Row, error) {
	return c.db.FetchOptional(ctx, sqlText, args...)
}
