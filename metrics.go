package rapsqlite

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// poolMetrics registers observable gauges reporting pool occupancy. Unlike
// the per-step counters in telemetry.go, these are sampled on demand by
// the OpenTelemetry SDK's collection callback rather than pushed by every
// operation, since occupancy is a level, not an event.
type poolMetrics struct {
	registration metric.Registration
}

func newPoolMetrics(cfg TelemetryConfig, p *pool) *poolMetrics {
	if !cfg.Enabled {
		return &poolMetrics{}
	}

	idleGauge, _ := defaultMeter.Int64ObservableGauge(
		"rapsqlite_pool_idle_connections",
		metric.WithDescription("Idle connections currently held by the pool"),
	)
	outstandingGauge, _ := defaultMeter.Int64ObservableGauge(
		"rapsqlite_pool_outstanding_connections",
		metric.WithDescription("Connections currently checked out of the pool"),
	)
	capacityGauge, _ := defaultMeter.Int64ObservableGauge(
		"rapsqlite_pool_capacity",
		metric.WithDescription("Configured maximum connection count"),
	)

	reg, _ := defaultMeter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := p.stats()
		o.ObserveInt64(idleGauge, int64(s.Idle))
		o.ObserveInt64(outstandingGauge, int64(s.Outstanding))
		o.ObserveInt64(capacityGauge, int64(s.Capacity))
		return nil
	}, idleGauge, outstandingGauge, capacityGauge)

	return &poolMetrics{registration: reg}
}

func (m *poolMetrics) close() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
