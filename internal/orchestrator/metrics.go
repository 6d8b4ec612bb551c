package orchestrator

import (
	"context"
	"fmt"

	"scanorch/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "scanorch/internal/orchestrator"

type instruments struct {
	tracer     trace.Tracer
	dispatches metric.Int64Counter
	units      metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter(instrumentationName)

	dispatches, err := meter.Int64Counter("scanorch.dispatches",
		metric.WithDescription("Number of task dispatches by outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch counter: %w", err)
	}
	units, err := meter.Int64Counter("scanorch.units",
		metric.WithDescription("Number of executed scan units by protocol and outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create unit counter: %w", err)
	}
	duration, err := meter.Float64Histogram("scanorch.dispatch.duration",
		metric.WithDescription("Time spent dispatching one task."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.ScanBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch histogram: %w", err)
	}

	return &instruments{
		tracer:     otel.Tracer(instrumentationName),
		dispatches: dispatches,
		units:      units,
		duration:   duration,
	}, nil
}

func (i *instruments) dispatched(ctx context.Context, outcome string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	i.dispatches.Add(ctx, 1, attrs)
	i.duration.Record(ctx, seconds, attrs)
}

func (i *instruments) unitDone(ctx context.Context, u Unit, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.units.Add(ctx, 1, metric.WithAttributes(
		attribute.String("protocol", string(u.Protocol)),
		attribute.String("outcome", outcome)))
}
