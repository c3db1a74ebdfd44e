package rapsqlite

import (
	"fmt"
	"log/slog"
	"time"
)

// defaultStmtCacheCapacity is the per-connection prepared-statement cache
// size used when a Config does not override it.
const defaultStmtCacheCapacity = 128

// defaultWorkerCount is the worker pool size used when PoolSize is unset.
const defaultWorkerCount = 2

// Config holds the resolved configuration for a DB. It is built from
// Option values passed to Open and from PoolSize/ConnectionTimeout
// mutations made afterward.
type Config struct {
	// Path is the SQLite database file, or ":memory:". Set by Open.
	Path string

	// PoolSize is the maximum number of concurrent connections. nil means
	// "unset, pick a small default". Zero is a valid, legitimate
	// degenerate configuration: acquire always waits and times out.
	PoolSize *int

	// ConnectionTimeout bounds how long acquire() waits for a connection.
	// nil means "unbounded wait" (acquire only fails if the caller's
	// context is canceled).
	ConnectionTimeout *time.Duration

	// StmtCacheCapacity is the per-connection prepared statement cache
	// size. Zero disables caching.
	StmtCacheCapacity int

	// BusyRetry bounds how long a SQLITE_BUSY statement is retried with
	// backoff before being surfaced as an EngineError.
	BusyRetry time.Duration

	// JournalMode, Synchronous, BusyTimeout, ForeignKeys, CacheSize
	// configure the engine's DSN; see buildDSN.
	JournalMode string
	Synchronous string
	BusyTimeout time.Duration
	ForeignKeys bool

	// CacheSize sets SQLite's per-connection page cache via the
	// cache_size pragma. Positive values are a page count; negative
	// values are a size in KiB (SQLite's own convention for this
	// pragma). Zero means "unset, use SQLite's built-in default".
	CacheSize int

	Telemetry TelemetryConfig
	Logging   LoggingConfig
}

// DefaultConfig returns the configuration Open uses when no Options
// override it.
func DefaultConfig(path string) Config {
	return Config{
		Path:              path,
		StmtCacheCapacity: defaultStmtCacheCapacity,
		BusyRetry:         5 * time.Second,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		BusyTimeout:       5 * time.Second,
		ForeignKeys:       true,
	}
}

// Option configures a DB at Open time.
type Option func(*Config)

// WithPoolSize sets the maximum number of concurrent connections.
func WithPoolSize(n int) Option {
	return func(c *Config) { c.PoolSize = &n }
}

// WithConnectionTimeout bounds how long acquire() waits for a connection.
func WithConnectionTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConnectionTimeout = &d }
}

// WithStmtCacheCapacity overrides the per-connection statement cache size.
func WithStmtCacheCapacity(n int) Option {
	return func(c *Config) { c.StmtCacheCapacity = n }
}

// WithBusyRetry overrides how long SQLITE_BUSY is retried before giving up.
func WithBusyRetry(d time.Duration) Option {
	return func(c *Config) { c.BusyRetry = d }
}

// WithJournalMode overrides the SQLite journal_mode pragma applied at open.
func WithJournalMode(mode string) Option {
	return func(c *Config) { c.JournalMode = mode }
}

// WithCacheSize overrides SQLite's per-connection page cache via the
// cache_size pragma. Positive is a page count; negative is a size in KiB.
func WithCacheSize(n int) Option {
	return func(c *Config) { c.CacheSize = n }
}

// WithTelemetry enables OpenTelemetry tracing and metrics and stores
// serviceName in TelemetryConfig.ServiceName. serviceName is not attached
// to spans or instruments as an attribute.
func WithTelemetry(serviceName string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = true
		c.Telemetry.ServiceName = serviceName
	}
}

// WithLogging enables structured slog logging at the given level, and
// flags any step slower than slowThreshold as a slow-query warning.
func WithLogging(level slog.Level, slowThreshold time.Duration) Option {
	return func(c *Config) {
		c.Logging.Enabled = true
		c.Logging.Level = level
		c.Logging.SlowStepThreshold = slowThreshold
	}
}

// validatePoolSize rejects negative pool sizes; zero is legitimate.
func validatePoolSize(n int) error {
	if n < 0 {
		return fmt.Errorf("rapsqlite: pool_size must be >= 0, got %d", n)
	}
	return nil
}

// validateConnectionTimeout rejects negative timeouts; zero is legitimate
// (acquire fails at once unless an idle connection is available or the
// pool has room to open a new one).
func validateConnectionTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("rapsqlite: connection_timeout must be >= 0, got %s", d)
	}
	return nil
}
