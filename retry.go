package rapsqlite

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isBusy reports whether err is a transient SQLITE_BUSY/SQLITE_LOCKED
// result from the engine — the only class of engine error the core retries
// on its own, because it reflects lock contention rather than a statement
// or data problem the caller needs to see.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// withBusyRetry runs fn, retrying with jittered exponential backoff while
// it fails with isBusy, until budget elapses or ctx is done. Any other
// error — or a busy error once the budget is spent — is returned as-is;
// it is then the caller's job (per the core's error policy) to decide
// whether to retry at a higher level or surface an EngineError.
func withBusyRetry(ctx context.Context, budget time.Duration, fn func() error) error {
	if budget <= 0 {
		return fn()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = budget
	bctx := backoff.WithContext(bo, ctx)

	var lastErr error
	op := func() error {
		err := fn()
		lastErr = err
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, bctx); err != nil {
		return lastErr
	}
	return nil
}
