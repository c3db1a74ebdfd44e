package rapsqlite

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/sqlite-async/rapsqlite"

// TelemetryConfig controls whether DB operations emit OpenTelemetry spans
// and metrics.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

var (
	defaultTracer = otel.Tracer(instrumentationName)
	defaultMeter  = otel.Meter(instrumentationName)
)

// telemetry bundles the tracer and metric instruments a DB records every
// dispatched step against. It is a no-op when Enabled is false, so callers
// that never configure telemetry pay only the cost of a few nil checks.
type telemetry struct {
	enabled bool
	service string

	tracer trace.Tracer

	stepsTotal    metric.Int64Counter
	stepDuration  metric.Float64Histogram
	txTotal       metric.Int64Counter
	txDuration    metric.Float64Histogram
}

func newTelemetry(cfg TelemetryConfig) *telemetry {
	t := &telemetry{enabled: cfg.Enabled, service: cfg.ServiceName}
	if !cfg.Enabled {
		return t
	}
	t.tracer = defaultTracer

	t.stepsTotal, _ = defaultMeter.Int64Counter(
		"rapsqlite_steps_total",
		metric.WithDescription("Number of dispatched statement steps"),
	)
	t.stepDuration, _ = defaultMeter.Float64Histogram(
		"rapsqlite_step_duration_seconds",
		metric.WithDescription("Duration of a dispatched statement step"),
		metric.WithUnit("s"),
	)
	t.txTotal, _ = defaultMeter.Int64Counter(
		"rapsqlite_transactions_total",
		metric.WithDescription("Number of completed transactions"),
	)
	t.txDuration, _ = defaultMeter.Float64Histogram(
		"rapsqlite_transaction_duration_seconds",
		metric.WithDescription("Duration of a completed transaction"),
		metric.WithUnit("s"),
	)
	return t
}

func opName(op opKind) string {
	switch op {
	case opExec:
		return "execute"
	case opFetchAll, opFetchOne, opFetchOptional:
		return "fetch"
	case opPragma:
		return "pragma"
	case opBegin:
		return "begin"
	case opCommit:
		return "commit"
	case opRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// recordStep emits a span and metric sample for one dispatched step.
func (t *telemetry) recordStep(ctx context.Context, op opKind, d time.Duration, err error) {
	if !t.enabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", opName(op)),
		attribute.String("status", status),
	}
	if t.stepsTotal != nil {
		t.stepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if t.stepDuration != nil {
		t.stepDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}

	_, span := t.tracer.Start(ctx, fmt.Sprintf("rapsqlite.%s", opName(op)))
	span.SetAttributes(attribute.String("db.system", "sqlite"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// recordTransaction records the counter and duration samples for one
// commit/rollback. It emits no span.
func (t *telemetry) recordTransaction(ctx context.Context, d time.Duration, err error) {
	if !t.enabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{attribute.String("status", status)}
	if t.txTotal != nil {
		t.txTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if t.txDuration != nil {
		t.txDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}
}
