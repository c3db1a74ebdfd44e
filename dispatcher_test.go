package rapsqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_SubmitReturnsResult(t *testing.T) {
	d := newDispatcher(2)
	defer d.close()

	res, err := d.submit(context.Background(), func() (stepResult, error) {
		return stepResult{rowsAffected: 7}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), res.rowsAffected)
}

func TestDispatcher_SubmitReturnsContextErrorWithoutWaitingForJob(t *testing.T) {
	d := newDispatcher(1)
	defer d.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := d.submit(ctx, func() (stepResult, error) {
		time.Sleep(50 * time.Millisecond)
		return stepResult{}, nil
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, elapsed, 40*time.Millisecond)
}

func TestWorkerPool_RecoversPanicAsInternalEngineError(t *testing.T) {
	d := newDispatcher(1)
	defer d.close()

	_, err := d.submit(context.Background(), func() (stepResult, error) {
		panic("boom")
	})
	require.Error(t, err)
	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, "internal", engErr.Code)
}
