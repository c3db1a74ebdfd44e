package rapsqlite

import (
	"context"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
)

// OperationalError reports a misuse of the core's state machines — most
// notably calling begin() while a transaction is already in progress.
type OperationalError struct {
	Message string
}

func (e *OperationalError) Error() string { return e.Message }

func newOperationalError(format string, args ...any) *OperationalError {
	return &OperationalError{Message: fmt.Sprintf(format, args...)}
}

// PoolTimeoutError is returned when acquire() does not obtain a connection
// before the configured ConnectionTimeout elapses.
type PoolTimeoutError struct {
	Waited string
}

func (e *PoolTimeoutError) Error() string {
	return fmt.Sprintf("rapsqlite: pool acquire timed out after %s", e.Waited)
}

// OutOfRangeError is returned by the value marshaller when a host integer
// does not fit the signed 64-bit range SQLite's INTEGER storage class uses.
type OutOfRangeError struct {
	Value any
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("rapsqlite: value %v out of range for a 64-bit SQLite integer", e.Value)
}

// EncodingError is returned by the value marshaller when a string argument
// is not valid UTF-8 and therefore cannot bind as TEXT. NewValue also
// returns it, with an empty Value, for an argument whose Go type maps to
// none of the five storage classes; the message text is the same in both
// cases.
type EncodingError struct {
	Value string
}

func (e *EncodingError) Error() string {
	return "rapsqlite: value is not valid UTF-8 and cannot bind as TEXT"
}

// NoRowError is returned by FetchOne when the query produced zero rows.
type NoRowError struct{}

func (e *NoRowError) Error() string { return "rapsqlite: query returned no rows" }

// EngineError wraps an error surfaced by the underlying SQLite engine,
// verbatim, plus the engine's result code when one is known. Code is the
// sentinel "internal" for errors recovered from a worker panic.
type EngineError struct {
	Code string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rapsqlite: engine error [%s]: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("rapsqlite: engine error: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func newEngineError(code string, err error) *EngineError {
	return &EngineError{Code: code, Err: err}
}

// internalEngineError wraps a recovered worker panic.
func internalEngineError(v any) *EngineError {
	return &EngineError{Code: "internal", Err: fmt.Errorf("worker panic: %v", v)}
}

// translateEngineErr normalizes an error coming back from a step() call
// into the core's public error vocabulary. Context cancellation and
// already-typed core errors pass through unchanged; everything the driver
// itself raised is wrapped as an EngineError carrying the engine's result
// code when modernc.org/sqlite exposes one.
func translateEngineErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var opErr *OperationalError
	var rangeErr *OutOfRangeError
	var encErr *EncodingError
	var noRowErr *NoRowError
	var engErr *EngineError
	if errors.As(err, &opErr) || errors.As(err, &rangeErr) || errors.As(err, &encErr) ||
		errors.As(err, &noRowErr) || errors.As(err, &engErr) {
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return newEngineError(fmt.Sprintf("%d", se.Code()), err)
	}
	return newEngineError("", err)
}
