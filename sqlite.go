package rapsqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// engineDriverName is the database/sql driver modernc.org/sqlite registers
// itself under.
const engineDriverName = "sqlite"

// buildDSN turns a Config's engine settings into the query-string DSN
// modernc.org/sqlite expects, e.g. "file.db?_journal_mode=WAL&_busy_timeout=5000".
func buildDSN(cfg Config) string {
	dsn := cfg.Path

	params := make(map[string]string)
	if cfg.BusyTimeout > 0 {
		params["_busy_timeout"] = fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds())
	}
	if cfg.JournalMode != "" {
		params["_journal_mode"] = cfg.JournalMode
	}
	if cfg.Synchronous != "" {
		params["_synchronous"] = cfg.Synchronous
	}
	if cfg.ForeignKeys {
		params["_foreign_keys"] = "on"
	}
	if cfg.CacheSize != 0 {
		params["_cache_size"] = fmt.Sprintf("%d", cfg.CacheSize)
	}

	if len(params) == 0 {
		return dsn
	}
	dsn += "?"
	first := true
	for k, v := range params {
		if !first {
			dsn += "&"
		}
		dsn += k + "=" + v
		first = false
	}
	return dsn
}

// openEngineDB opens the shared *sql.DB a pool's connections are carved
// out of via DB.Conn(ctx). The core — not database/sql's own pooling —
// owns connection-count and timeout semantics (C6), so database/sql's
// independent idle-connection bookkeeping is disabled here to avoid the
// two pools fighting over the same handles.
func openEngineDB(cfg Config) (*sql.DB, error) {
	dsn := buildDSN(cfg)
	db, err := sql.Open(engineDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("rapsqlite: opening %q: %w", cfg.Path, err)
	}
	db.SetMaxIdleConns(0)
	return db, nil
}
