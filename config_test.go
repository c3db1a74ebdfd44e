package rapsqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HasSafeDefaults(t *testing.T) {
	cfg := DefaultConfig("app.db")
	require.Equal(t, "app.db", cfg.Path)
	require.Equal(t, "WAL", cfg.JournalMode)
	require.True(t, cfg.ForeignKeys)
	require.Nil(t, cfg.PoolSize)
}

func TestOptions_OverrideDefaults(t *testing.T) {
	cfg := DefaultConfig(":memory:")
	for _, opt := range []Option{
		WithPoolSize(8),
		WithConnectionTimeout(2 * time.Second),
		WithStmtCacheCapacity(16),
		WithBusyRetry(time.Second),
		WithJournalMode("DELETE"),
	} {
		opt(&cfg)
	}
	require.NotNil(t, cfg.PoolSize)
	require.Equal(t, 8, *cfg.PoolSize)
	require.NotNil(t, cfg.ConnectionTimeout)
	require.Equal(t, 2*time.Second, *cfg.ConnectionTimeout)
	require.Equal(t, 16, cfg.StmtCacheCapacity)
	require.Equal(t, time.Second, cfg.BusyRetry)
	require.Equal(t, "DELETE", cfg.JournalMode)
}

func TestValidatePoolSize_RejectsNegativeAcceptsZero(t *testing.T) {
	require.Error(t, validatePoolSize(-1))
	require.NoError(t, validatePoolSize(0))
	require.NoError(t, validatePoolSize(5))
}

func TestValidateConnectionTimeout_RejectsNegativeAcceptsZero(t *testing.T) {
	require.Error(t, validateConnectionTimeout(-time.Second))
	require.NoError(t, validateConnectionTimeout(0))
}

func TestBuildDSN_IncludesConfiguredPragmas(t *testing.T) {
	cfg := DefaultConfig("app.db")
	dsn := buildDSN(cfg)
	require.Contains(t, dsn, "app.db?")
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_foreign_keys=on")
}

func TestOpen_RejectsNegativePoolSize(t *testing.T) {
	_, err := Open(":memory:", WithPoolSize(-1))
	require.Error(t, err)
}

func TestBuildDSN_IncludesCacheSizeWhenSet(t *testing.T) {
	cfg := DefaultConfig("app.db")
	WithCacheSize(-2000)(&cfg)
	dsn := buildDSN(cfg)
	require.Contains(t, dsn, "_cache_size=-2000")
}

func TestBuildDSN_OmitsCacheSizeWhenUnset(t *testing.T) {
	cfg := DefaultConfig("app.db")
	dsn := buildDSN(cfg)
	require.NotContains(t, dsn, "_cache_size")
}
