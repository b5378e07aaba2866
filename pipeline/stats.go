package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats is a point-in-time snapshot of a pipeline's counters.
type Stats struct {
	Sourced     int64 `json:"sourced"`
	Transformed int64 `json:"transformed"`
	Delivered   int64 `json:"delivered"`
	Dropped     int64 `json:"dropped"`
	// InFlight counts items read from the source and not yet delivered or
	// dropped.
	InFlight    int64 `json:"in_flight"`
	MaxInFlight int64 `json:"max_in_flight"`

	ReadTime      time.Duration `json:"read_time"`
	TransformTime time.Duration `json:"transform_time"`
	WriteTime     time.Duration `json:"write_time"`

	// Backoff counts per waiting side.
	ProducerWaits int64 `json:"producer_waits"`
	ClaimWaits    int64 `json:"claim_waits"`
	PushWaits     int64 `json:"push_waits"`
	ConsumerWaits int64 `json:"consumer_waits"`
}

// recorder accumulates counters shared by every stage of one pipeline. All
// methods are safe for concurrent use; a nil metrics field disables export.
type recorder struct {
	name    string
	metrics *Metrics
	attrs   metric.MeasurementOption

	sourced, transformed, delivered, dropped atomic.Int64
	inFlight, maxInFlight                    atomic.Int64
	readNanos, transformNanos, writeNanos    atomic.Int64

	producerWaits, claimWaits, pushWaits, consumerWaits atomic.Int64
}

func newRecorder(name string, m *Metrics) *recorder {
	return &recorder{
		name:    name,
		metrics: m,
		attrs:   metric.WithAttributes(attribute.String("pipeline", name)),
	}
}

func (r *recorder) itemSourced(d time.Duration) {
	r.sourced.Add(1)
	r.readNanos.Add(int64(d))
	n := r.inFlight.Add(1)
	for {
		peak := r.maxInFlight.Load()
		if n <= peak || r.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if r.metrics != nil {
		ctx := context.Background()
		r.metrics.sourced.Add(ctx, 1, r.attrs)
		r.metrics.inFlight.Add(ctx, 1, r.attrs)
		r.metrics.recordStage(ctx, r.name, StageRead, d)
	}
}

func (r *recorder) itemTransformed(d time.Duration) {
	r.transformed.Add(1)
	r.transformNanos.Add(int64(d))
	if r.metrics != nil {
		ctx := context.Background()
		r.metrics.transformed.Add(ctx, 1, r.attrs)
		r.metrics.recordStage(ctx, r.name, StageTransform, d)
	}
}

func (r *recorder) itemDelivered(d time.Duration) {
	r.delivered.Add(1)
	r.writeNanos.Add(int64(d))
	r.inFlight.Add(-1)
	if r.metrics != nil {
		ctx := context.Background()
		r.metrics.delivered.Add(ctx, 1, r.attrs)
		r.metrics.inFlight.Add(ctx, -1, r.attrs)
		r.metrics.recordStage(ctx, r.name, StageWrite, d)
	}
}

func (r *recorder) itemsDropped(n int) {
	if n <= 0 {
		return
	}
	r.dropped.Add(int64(n))
	r.inFlight.Add(-int64(n))
	if r.metrics != nil {
		ctx := context.Background()
		r.metrics.dropped.Add(ctx, int64(n), r.attrs)
		r.metrics.inFlight.Add(ctx, -int64(n), r.attrs)
	}
}

func (r *recorder) waited(counter *atomic.Int64, stage string) {
	counter.Add(1)
	if r.metrics != nil {
		r.metrics.recordWait(context.Background(), r.name, stage)
	}
}

func (r *recorder) snapshot() Stats {
	return Stats{
		Sourced:       r.sourced.Load(),
		Transformed:   r.transformed.Load(),
		Delivered:     r.delivered.Load(),
		Dropped:       r.dropped.Load(),
		InFlight:      r.inFlight.Load(),
		MaxInFlight:   r.maxInFlight.Load(),
		ReadTime:      time.Duration(r.readNanos.Load()),
		TransformTime: time.Duration(r.transformNanos.Load()),
		WriteTime:     time.Duration(r.writeNanos.Load()),
		ProducerWaits: r.producerWaits.Load(),
		ClaimWaits:    r.claimWaits.Load(),
		PushWaits:     r.pushWaits.Load(),
		ConsumerWaits: r.consumerWaits.Load(),
	}
}
