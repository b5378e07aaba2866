package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/slotpipe/component"
	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
	"github.com/kbukum/slotpipe/observability"
)

// SpanRun is the name of the span covering one pipeline run.
const SpanRun = "pipeline.run"

// Transform converts one item. It is called concurrently from every worker
// and must not keep references to shared mutable state without locking.
type Transform[I, O any] func(ctx context.Context, item I) (O, error)

const (
	stateNew int32 = iota
	stateRunning
	stateDone
)

// Pool wires a Producer, Workers goroutines and a Consumer into one run.
// A Pool runs once; build a new one for each run.
type Pool[I, O any] struct {
	cfg       Config
	runID     string
	transform Transform[I, O]
	producer  *Producer[I]
	consumer  *Consumer[O]
	rec       *recorder
	log       *logger.Logger
	tracer    trace.Tracer

	state    atomic.Int32
	group    *errgroup.Group
	span     trace.Span
	started  time.Time
	once     sync.Once
	finished chan struct{}
	err      error
}

var (
	_ component.Component   = (*Pool[int, int])(nil)
	_ component.Describable = (*Pool[int, int])(nil)
)

// NewPool validates cfg and builds a pool. Nothing runs until Start.
func NewPool[I, O any](cfg Config, source Source[I], transform Transform[I, O], sink Sink[O], opts ...Option) (*Pool[I, O], error) {
	switch {
	case source == nil:
		return nil, errors.InvalidConfig("source", "source is required")
	case transform == nil:
		return nil, errors.InvalidConfig("transform", "transform is required")
	case sink == nil:
		return nil, errors.InvalidConfig("sink", "sink is required")
	}
	o, rec, err := prepare(&cfg, opts)
	if err != nil {
		return nil, err
	}

	return &Pool[I, O]{
		cfg:       cfg,
		runID:     uuid.NewString(),
		transform: transform,
		producer:  newProducer(source, &cfg, rec, o.log),
		consumer:  newConsumer(sink, &cfg, rec, o.log),
		rec:       rec,
		log:       o.log.WithComponent(cfg.Name),
		tracer:    o.tracer,
		finished:  make(chan struct{}),
	}, nil
}

// Name returns the configured pipeline name.
func (p *Pool[I, O]) Name() string { return p.cfg.Name }

// RunID returns the unique id of this run, attached to logs and the run span.
func (p *Pool[I, O]) RunID() string { return p.runID }

// Start launches the producer, the consumer and the workers, then returns.
// Cancelling ctx after Start returns has no effect: the run always drains to
// exhaustion. Starting twice returns ALREADY_STARTED.
func (p *Pool[I, O]) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(stateNew, stateRunning) {
		return errors.AlreadyStarted(p.cfg.Name)
	}
	p.started = time.Now()

	ctx = logger.ContextWithRunID(ctx, p.runID)
	ctx, p.span = p.tracer.Start(ctx, SpanRun, trace.WithAttributes(
		attribute.String(observability.AttrPipelineName, p.cfg.Name),
		attribute.String(observability.AttrRunID, p.runID),
		attribute.Int(observability.AttrWorkers, p.cfg.Workers),
		attribute.String(observability.AttrBackoff, string(p.cfg.Backoff)),
	))
	p.log = p.log.WithContext(ctx)

	group, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	p.group = group

	p.producer.Start(gctx)
	p.consumer.Start()
	for i := 0; i < p.cfg.Workers; i++ {
		id := i
		group.Go(func() error { return p.work(gctx, id) })
	}

	p.log.Info("pipeline started", logger.Fields(
		"workers", p.cfg.Workers,
		"backoff", p.cfg.Backoff,
	))
	return nil
}

func (p *Pool[I, O]) work(ctx context.Context, id int) error {
	for {
		item, ok := p.producer.GetItem(ctx)
		if !ok {
			return nil
		}
		out, err := p.apply(ctx, id, item)
		if err != nil {
			p.rec.itemsDropped(1)
			p.log.WithError(err).Error("worker failed", logger.Fields(logger.FieldWorker, id))
			return err
		}
		p.consumer.PushItem(out)
	}
}

// apply runs the transform, turning a panic into an error so a crashing item
// cannot take a worker down silently.
func (p *Pool[I, O]) apply(ctx context.Context, id int, item I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WorkerPanic(id, r)
		}
	}()

	start := time.Now()
	out, err = p.transform(ctx, item)
	if err != nil {
		return out, errors.TransformFailed(id, err)
	}
	p.rec.itemTransformed(time.Since(start))
	return out, nil
}

// WaitForFinish blocks until every item has been delivered, or until a
// failed run has drained, and stops the consumer. It returns the first
// worker failure, or NOT_STARTED if Start was never called. It is safe to
// call more than once.
//
// After a failure the producer stops at its next read, so a source whose Next
// blocks (an interactive stdin, say) holds WaitForFinish until that call
// returns.
func (p *Pool[I, O]) WaitForFinish() error {
	if p.state.Load() == stateNew {
		return errors.NotStarted(p.cfg.Name)
	}
	p.once.Do(p.finish)
	return p.err
}

func (p *Pool[I, O]) finish() {
	err := p.group.Wait()
	<-p.producer.Done()
	if err != nil {
		if n := p.producer.discard(); n > 0 {
			p.log.Warn("discarded unprocessed items", logger.Fields(logger.FieldItems, n))
		}
	}

	for !p.consumer.Idle() {
		runtime.Gosched()
	}
	p.consumer.ShutDown()

	stats := p.rec.snapshot()
	p.span.SetAttributes(
		attribute.Int64(observability.AttrItemsSourced, stats.Sourced),
		attribute.Int64(observability.AttrItemsDelivered, stats.Delivered),
		attribute.Int64(observability.AttrItemsDropped, stats.Dropped),
	)
	fields := logger.Fields(
		"sourced", stats.Sourced,
		"delivered", stats.Delivered,
		"dropped", stats.Dropped,
		"max_in_flight", stats.MaxInFlight,
	)
	for k, v := range logger.DurationFields("run", time.Since(p.started)) {
		fields[k] = v
	}
	if err != nil {
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
		p.log.Error("pipeline failed", logger.MergeWithError(fields, err))
	} else {
		p.log.Info("pipeline finished", fields)
	}
	p.span.End()

	p.err = err
	p.state.Store(stateDone)
	close(p.finished)
}

// Run starts the pool and waits for it to finish.
func (p *Pool[I, O]) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	return p.WaitForFinish()
}

// Stop waits for the run to drain, giving up with TIMEOUT when ctx is done.
// In-progress transforms are never interrupted. Stop on a pool that was never
// started is a no-op.
func (p *Pool[I, O]) Stop(ctx context.Context) error {
	if p.state.Load() == stateNew {
		return nil
	}
	go p.once.Do(p.finish)
	select {
	case <-p.finished:
		return p.err
	case <-ctx.Done():
		return errors.Timeout(p.cfg.Name + " drain").WithCause(ctx.Err())
	}
}

// Finished reports whether the source is exhausted. Workers and the consumer
// may still be busy.
func (p *Pool[I, O]) Finished() bool {
	return p.producer.EOF()
}

// Done is closed once the run has fully drained and the consumer has exited.
func (p *Pool[I, O]) Done() <-chan struct{} {
	return p.finished
}

// Stats returns a snapshot of the run's counters.
func (p *Pool[I, O]) Stats() Stats {
	return p.rec.snapshot()
}

// Health reports unhealthy once a run has failed.
func (p *Pool[I, O]) Health(_ context.Context) component.Health {
	h := component.Health{Name: p.cfg.Name, Status: component.StatusHealthy}
	switch p.state.Load() {
	case stateNew:
		h.Message = "not started"
	case stateRunning:
		h.Message = "running"
		if p.Finished() {
			h.Message = "draining"
		}
	default:
		h.Message = "finished"
		if p.err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = p.err.Error()
		}
	}
	return h
}

// Describe reports the pool's shape for startup summaries.
func (p *Pool[I, O]) Describe() component.Description {
	return component.Description{
		Type:    "pipeline",
		Details: fmt.Sprintf("workers=%d slots=%d backoff=%s", p.cfg.Workers, p.cfg.Slots(), p.cfg.Backoff),
	}
}
