package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stage names used as the "stage" metric attribute and in logs.
const (
	StageRead      = "read"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Metrics holds OpenTelemetry instruments for pipeline runs.
type Metrics struct {
	sourced     metric.Int64Counter
	transformed metric.Int64Counter
	delivered   metric.Int64Counter
	dropped     metric.Int64Counter
	inFlight    metric.Int64UpDownCounter
	duration    metric.Float64Histogram
	waits       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sourced, err := meter.Int64Counter("slotpipe.items.sourced",
		metric.WithDescription("Items read from the source"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.items.sourced counter: %w", err)
	}

	transformed, err := meter.Int64Counter("slotpipe.items.transformed",
		metric.WithDescription("Items transformed by workers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.items.transformed counter: %w", err)
	}

	delivered, err := meter.Int64Counter("slotpipe.items.delivered",
		metric.WithDescription("Items accepted by the sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.items.delivered counter: %w", err)
	}

	dropped, err := meter.Int64Counter("slotpipe.items.dropped",
		metric.WithDescription("Items discarded after a failed run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.items.dropped counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("slotpipe.items.inflight",
		metric.WithDescription("Items read from the source and not yet delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.items.inflight gauge: %w", err)
	}

	duration, err := meter.Float64Histogram("slotpipe.stage.duration",
		metric.WithDescription("Time spent per item in each stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.stage.duration histogram: %w", err)
	}

	waits, err := meter.Int64Counter("slotpipe.backoff.waits",
		metric.WithDescription("Times a stage backed off because no slot was usable"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slotpipe.backoff.waits counter: %w", err)
	}

	return &Metrics{
		sourced:     sourced,
		transformed: transformed,
		delivered:   delivered,
		dropped:     dropped,
		inFlight:    inFlight,
		duration:    duration,
		waits:       waits,
	}, nil
}

func (m *Metrics) recordStage(ctx context.Context, pipeline, stage string, d time.Duration) {
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("stage", stage),
	))
}

func (m *Metrics) recordWait(ctx context.Context, pipeline, stage string) {
	m.waits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("stage", stage),
	))
}
