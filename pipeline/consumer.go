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

// Consumer accepts items from workers into a fixed set of slots and empties
// them into a Sink on its own goroutine.
type Consumer[T any] struct {
	sink    Sink[T]
	slots   *slot.Array[T]
	started atomic.Bool
	running atomic.Bool

	// slotFreed wakes workers blocked in PushItem; itemReady wakes the
	// backing goroutine.
	slotFreed wait.Waiter
	itemReady wait.Waiter

	rec  *recorder
	log  *logger.Logger
	done chan struct{}
}

// NewConsumer returns a consumer with cfg.Workers+1 slots writing to sink.
// Call Start to launch the backing goroutine.
func NewConsumer[T any](sink Sink[T], cfg Config, opts ...Option) (*Consumer[T], error) {
	if sink == nil {
		return nil, errors.InvalidConfig("sink", "sink is required")
	}
	o, rec, err := prepare(&cfg, opts)
	if err != nil {
		return nil, err
	}
	return newConsumer(sink, &cfg, rec, o.log), nil
}

func newConsumer[T any](sink Sink[T], cfg *Config, rec *recorder, log *logger.Logger) *Consumer[T] {
	return &Consumer[T]{
		sink:      sink,
		slots:     slot.New[T](cfg.Slots()),
		slotFreed: cfg.newWaiter(),
		itemReady: cfg.newWaiter(),
		rec:       rec,
		log:       log.WithComponent("consumer"),
		done:      make(chan struct{}),
	}
}

// Start sets the run flag and launches the backing goroutine. Start must be
// called at most once.
func (c *Consumer[T]) Start() {
	c.running.Store(true)
	c.started.Store(true)
	go c.run()
}

func (c *Consumer[T]) run() {
	defer close(c.done)

	// Keep going after ShutDown clears the run flag until every slot is
	// empty; items pushed before ShutDown are never lost.
	for c.running.Load() || !c.slots.AllEmpty() {
		found := false
		for i := 0; i < c.slots.Cap(); i++ {
			item, ok := c.slots.Take(i)
			if !ok {
				continue
			}
			found = true
			c.slotFreed.Signal()

			start := time.Now()
			c.sink.Accept(item)
			c.rec.itemDelivered(time.Since(start))
		}
		if !found && c.running.Load() {
			c.rec.waited(&c.rec.consumerWaits, StageWrite)
			_ = c.itemReady.Wait(context.Background())
		}
	}
	c.log.Debug("consumer drained", logger.Fields(logger.FieldItems, c.rec.delivered.Load()))
}

// PushItem stores item in a free slot, blocking while every slot is
// occupied. This is where a slow sink throttles the workers.
func (c *Consumer[T]) PushItem(item T) {
	for !c.slots.Put(item) {
		c.rec.waited(&c.rec.pushWaits, StageWrite)
		_ = c.slotFreed.Wait(context.Background())
	}
	c.itemReady.Signal()
}

// Idle reports whether every slot is empty.
func (c *Consumer[T]) Idle() bool {
	return c.slots.AllEmpty()
}

// ShutDown clears the run flag, wakes the backing goroutine and waits for it
// to drain the remaining slots and exit. It is a no-op if Start was never
// called.
func (c *Consumer[T]) ShutDown() {
	if !c.started.Load() {
		return
	}
	c.running.Store(false)
	c.itemReady.Signal()
	<-c.done
}
