package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
	"github.com/kbukum/slotpipe/slot"
	"github.com/kbukum/slotpipe/wait"
)

// Producer drains a Source into a fixed set of slots on its own goroutine and
// hands items to workers through GetItem.
type Producer[T any] struct {
	source Source[T]
	slots  *slot.Array[T]
	eof    atomic.Bool

	// slotFreed wakes the backing goroutine; itemReady wakes workers.
	slotFreed wait.Waiter
	itemReady wait.Waiter

	rec  *recorder
	log  *logger.Logger
	done chan struct{}
}

// NewProducer returns a producer with cfg.Workers+1 slots reading from
// source. Call Start to launch the backing goroutine.
func NewProducer[T any](source Source[T], cfg Config, opts ...Option) (*Producer[T], error) {
	if source == nil {
		return nil, errors.InvalidConfig("source", "source is required")
	}
	o, rec, err := prepare(&cfg, opts)
	if err != nil {
		return nil, err
	}
	return newProducer(source, &cfg, rec, o.log), nil
}

func newProducer[T any](source Source[T], cfg *Config, rec *recorder, log *logger.Logger) *Producer[T] {
	return &Producer[T]{
		source:    source,
		slots:     slot.New[T](cfg.Slots()),
		slotFreed: cfg.newWaiter(),
		itemReady: cfg.newWaiter(),
		rec:       rec,
		log:       log.WithComponent("producer"),
		done:      make(chan struct{}),
	}
}

// Start launches the backing goroutine. Cancelling ctx makes the producer
// stop reading and raise end-of-data early; items already in slots stay
// claimable. Start must be called at most once.
func (p *Producer[T]) Start(ctx context.Context) {
	p.log = p.log.WithContext(ctx)
	go p.run(ctx)
}

func (p *Producer[T]) run(ctx context.Context) {
	defer close(p.done)
	defer p.finish()

	for {
		filled := false
		for i := 0; i < p.slots.Cap(); i++ {
			if ctx.Err() != nil {
				p.log.Debug("producer aborted", logger.Fields(logger.FieldItems, p.rec.sourced.Load()))
				return
			}
			if !p.slots.IsEmpty(i) {
				continue
			}
			start := time.Now()
			item, ok := p.source.Next()
			if !ok {
				p.log.Debug("source exhausted", logger.Fields(logger.FieldItems, p.rec.sourced.Load()))
				return
			}
			p.rec.itemSourced(time.Since(start))
			if !p.slots.Store(i, item) {
				// Only this goroutine fills producer slots.
				panic("pipeline: producer slot filled concurrently")
			}
			p.itemReady.Signal()
			filled = true
		}
		if !filled {
			p.rec.waited(&p.rec.producerWaits, StageRead)
			if err := p.slotFreed.Wait(ctx); err != nil {
				return
			}
		}
	}
}

// finish raises end-of-data and wakes every worker so each re-checks EOF.
func (p *Producer[T]) finish() {
	p.eof.Store(true)
	p.itemReady.SignalN(p.slots.Cap())
}

// EOF reports whether the source is exhausted. Slots may still hold items.
func (p *Producer[T]) EOF() bool {
	return p.eof.Load()
}

// Idle reports whether the source is exhausted and every slot is empty, so
// no item will ever be returned again.
func (p *Producer[T]) Idle() bool {
	return p.eof.Load() && p.slots.AllEmpty()
}

// GetItem claims one item, blocking while the slots are empty and the source
// is not exhausted. It returns false once the producer is idle or ctx is
// done.
func (p *Producer[T]) GetItem(ctx context.Context) (T, bool) {
	var zero T
	for {
		if ctx.Err() != nil {
			return zero, false
		}
		// EOF is sampled before the scan so an item stored just before the
		// flag was raised is still seen.
		eof := p.eof.Load()
		if item, ok := p.slots.Claim(); ok {
			p.slotFreed.Signal()
			return item, true
		}
		if eof {
			return zero, false
		}
		p.rec.waited(&p.rec.claimWaits, StageTransform)
		_ = p.itemReady.Wait(ctx)
	}
}

// Done is closed when the backing goroutine has exited.
func (p *Producer[T]) Done() <-chan struct{} {
	return p.done
}

// discard empties every slot after an aborted run and returns the number of
// items removed. Only call it once the backing goroutine has exited.
func (p *Producer[T]) discard() int {
	n := 0
	for {
		if _, ok := p.slots.Claim(); !ok {
			break
		}
		n++
	}
	p.rec.itemsDropped(n)
	return n
}
