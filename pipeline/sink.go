package pipeline

import "sync"

// Sink consumes finished items. Accept must not block indefinitely or the
// drain phase stalls. A Sink is only ever called from the consumer goroutine.
type Sink[T any] interface {
	Accept(item T)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[T any] func(T)

// Accept calls f.
func (f SinkFunc[T]) Accept(item T) { f(item) }

// Collector is a sink that keeps every item in arrival order. It is safe to
// read while the pipeline is running.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
}

// Accept appends item.
func (c *Collector[T]) Accept(item T) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
}

// Items returns a copy of the collected items in arrival order.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of collected items.
func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Unbatched delivers each element of a batch to sink in batch order.
func Unbatched[T any](sink Sink[T]) Sink[[]T] {
	return SinkFunc[[]T](func(batch []T) {
		for _, item := range batch {
			sink.Accept(item)
		}
	})
}
