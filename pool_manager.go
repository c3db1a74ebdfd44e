package rapsqlite

import (
	"sync"
	"time"
)

// LeakDetectorConfig configures how long a checked-out connection may be
// held before it is reported as a suspected leak.
type LeakDetectorConfig struct {
	Threshold time.Duration
}

// DefaultLeakDetectorConfig flags anything held longer than thirty
// seconds — long enough that no ordinary statement or short transaction
// trips it, short enough to catch a connection a caller forgot to
// release.
func DefaultLeakDetectorConfig() LeakDetectorConfig {
	return LeakDetectorConfig{Threshold: 30 * time.Second}
}

// LeakedConn describes one connection a LeakDetector believes is leaked.
type LeakedConn struct {
	Handle *Conn
	Held   time.Duration
}

// LeakDetector wraps a pool's acquire/release calls with checkout-time
// bookkeeping, so Report can list connections held suspiciously long.
// It does not alter pool behavior; it only observes it.
type LeakDetector struct {
	p   *pool
	cfg LeakDetectorConfig

	mu        sync.Mutex
	checkedAt map[*Conn]time.Time
}

// NewLeakDetector attaches a detector to db's pool.
func NewLeakDetector(db *DB, cfg LeakDetectorConfig) *LeakDetector {
	return &LeakDetector{p: db.pool, cfg: cfg, checkedAt: make(map[*Conn]time.Time)}
}

// Track records that conn was just checked out. Call it immediately after
// any acquire the caller wants monitored.
func (d *LeakDetector) Track(conn *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkedAt[conn] = time.Now()
}

// Untrack records that conn was returned, clearing its checkout timestamp.
func (d *LeakDetector) Untrack(conn *Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.checkedAt, conn)
}

// Report lists every tracked connection currently held longer than the
// configured threshold.
func (d *LeakDetector) Report() []LeakedConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	var leaks []LeakedConn
	for conn, at := range d.checkedAt {
		held := now.Sub(at)
		if held >= d.cfg.Threshold {
			leaks = append(leaks, LeakedConn{Handle: conn, Held: held})
		}
	}
	return leaks
}
