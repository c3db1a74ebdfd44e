package rapsqlite

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HealthStatus reports the outcome of one health check pass.
type HealthStatus struct {
	Healthy      bool
	LastChecked  time.Time
	ResponseTime time.Duration
	Pool         Stats
	Errors       []HealthError
}

// HealthError records one failed aspect of a health check.
type HealthError struct {
	Type        string
	Message     string
	Timestamp   time.Time
	Recoverable bool
}

// HealthCheckConfig configures HealthCheck and the periodic HealthMonitor.
type HealthCheckConfig struct {
	Timeout            time.Duration
	TestQuery          string
	MonitoringInterval time.Duration
}

// DefaultHealthCheckConfig returns the health check defaults most callers
// want: a three-second budget and a trivial "SELECT 1" probe.
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{
		Timeout:            3 * time.Second,
		TestQuery:          "SELECT 1",
		MonitoringInterval: 30 * time.Second,
	}
}

// HealthCheck performs a single health check pass against db using the
// default configuration.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return db.HealthCheckWithConfig(ctx, DefaultHealthCheckConfig())
}

// HealthCheckWithConfig runs a bounded probe query and reports pool
// occupancy alongside the result. It never returns an error itself — a
// failed probe is recorded in the returned status's Errors, so a caller
// can distinguish "health check failed to run" from "database unhealthy".
func (db *DB) HealthCheckWithConfig(ctx context.Context, cfg HealthCheckConfig) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastChecked: start, Healthy: true, Pool: db.Stats()}

	timeoutCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if _, err := db.FetchOne(timeoutCtx, cfg.TestQuery); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, HealthError{
			Type:        "probe_query",
			Message:     fmt.Sprintf("probe query failed: %v", err),
			Timestamp:   time.Now(),
			Recoverable: true,
		})
	}

	status.ResponseTime = time.Since(start)
	return status, nil
}

// HealthMonitor runs HealthCheck on a fixed interval until stopped,
// keeping only the most recent status for Status() to read.
type HealthMonitor struct {
	db     *DB
	cfg    HealthCheckConfig
	mu     sync.RWMutex
	status *HealthStatus
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewHealthMonitor creates a monitor; call Start to begin polling.
func NewHealthMonitor(db *DB, cfg HealthCheckConfig) *HealthMonitor {
	return &HealthMonitor{db: db, cfg: cfg, stop: make(chan struct{})}
}

// Start begins polling db at cfg.MonitoringInterval until Stop is called.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.MonitoringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				status, _ := m.db.HealthCheckWithConfig(ctx, m.cfg)
				m.mu.Lock()
				m.status = status
				m.mu.Unlock()
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts polling and waits for the background goroutine to exit.
func (m *HealthMonitor) Stop() {
	close(m.stop)
	m.wg.Wait()
}

// Status returns the most recently recorded health check result, or nil
// if none has completed yet.
func (m *HealthMonitor) Status() *HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
