package rapsqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int, timeout time.Duration) *pool {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "pool.db"))
	cfg.PoolSize = &capacity
	cfg.ConnectionTimeout = &timeout
	raw, err := openEngineDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return newPool(raw, cfg)
}

func TestPool_OutstandingPlusIdleNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 3, time.Second)

	var mu sync.Mutex
	var maxSeen int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := p.acquire(ctx)
			require.NoError(t, err)
			s := p.stats()
			mu.Lock()
			if s.Outstanding+s.Idle > maxSeen {
				maxSeen = s.Outstanding + s.Idle
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			p.release(conn)
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, maxSeen, 3)
}

func TestPool_SetCapacity_RejectsNegative(t *testing.T) {
	p := newTestPool(t, 2, time.Second)
	require.Error(t, p.setCapacity(-1))
	require.NoError(t, p.setCapacity(0))
}

func TestPool_ZeroCapacity_AcquireTimesOut(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 0, 20*time.Millisecond)

	start := time.Now()
	_, err := p.acquire(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	var timeoutErr *PoolTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.GreaterOrEqual(t, elapsed, 15*time.Millisecond)
}

func TestPool_ReleaseWakesWaiter(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1, time.Second)

	conn, err := p.acquire(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		conn2, err := p.acquire(ctx)
		require.NoError(t, err)
		p.release(conn2)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	p.release(conn)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
}
