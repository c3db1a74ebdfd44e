package rapsqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLeakDetector_ReportsOnlyConnectionsPastThreshold(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	detector := NewLeakDetector(db, LeakDetectorConfig{Threshold: 20 * time.Millisecond})

	conn, err := db.pool.acquire(ctx)
	require.NoError(t, err)
	detector.Track(conn)

	require.Empty(t, detector.Report())

	time.Sleep(30 * time.Millisecond)
	leaks := detector.Report()
	require.Len(t, leaks, 1)
	require.Equal(t, conn, leaks[0].Handle)
	require.GreaterOrEqual(t, leaks[0].Held, 20*time.Millisecond)

	detector.Untrack(conn)
	require.Empty(t, detector.Report())
	db.pool.release(conn)
}
