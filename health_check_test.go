package rapsqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDB_HealthCheck_ReportsHealthyWithPoolStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	require.True(t, status.Healthy)
	require.Empty(t, status.Errors)
	require.GreaterOrEqual(t, status.Pool.Capacity, 1)
}

func TestDB_HealthCheckWithConfig_RecordsProbeFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cfg := DefaultHealthCheckConfig()
	cfg.TestQuery = "SELECT * FROM no_such_table"

	status, err := db.HealthCheckWithConfig(ctx, cfg)
	require.NoError(t, err)
	require.False(t, status.Healthy)
	require.Len(t, status.Errors, 1)
	require.Equal(t, "probe_query", status.Errors[0].Type)
}

func TestHealthMonitor_PollsAndStopsCleanly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cfg := DefaultHealthCheckConfig()
	cfg.MonitoringInterval = 5 * time.Millisecond
	mon := NewHealthMonitor(db, cfg)
	mon.Start(ctx)

	require.Eventually(t, func() bool {
		return mon.Status() != nil
	}, time.Second, 5*time.Millisecond)

	mon.Stop()
	require.True(t, mon.Status().Healthy)
}
