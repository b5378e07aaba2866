package pipeline

import "context"

// Source yields items on demand. Next returns false once the source is
// exhausted and must keep returning false afterwards. A source that hits an
// I/O error reports exhaustion and exposes the error through its own API.
//
// A Source is only ever called from the producer goroutine.
type Source[T any] interface {
	Next() (T, bool)
}

// SourceFunc adapts a function to a Source.
type SourceFunc[T any] func() (T, bool)

// Next calls f.
func (f SourceFunc[T]) Next() (T, bool) { return f() }

// FromSlice returns a source that yields items in order.
func FromSlice[T any](items []T) Source[T] {
	return &sliceSource[T]{items: items}
}

type sliceSource[T any] struct {
	items []T
	index int
}

func (s *sliceSource[T]) Next() (T, bool) {
	if s.index >= len(s.items) {
		var zero T
		return zero, false
	}
	val := s.items[s.index]
	s.index++
	return val, true
}

// Iterator provides pull-based sequential access to a stream of values that
// may fail.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// IteratorSource adapts an Iterator to a Source. The first error returned by
// the iterator, or by Close, ends the stream and is kept for Err.
type IteratorSource[T any] struct {
	ctx  context.Context
	it   Iterator[T]
	err  error
	done bool
}

// FromIterator wraps it. ctx is passed to every it.Next call.
func FromIterator[T any](ctx context.Context, it Iterator[T]) *IteratorSource[T] {
	return &IteratorSource[T]{ctx: ctx, it: it}
}

// Next returns the next value or reports exhaustion.
func (s *IteratorSource[T]) Next() (T, bool) {
	var zero T
	if s.done {
		return zero, false
	}
	val, ok, err := s.it.Next(s.ctx)
	if err != nil || !ok {
		s.err = err
		s.close()
		return zero, false
	}
	return val, true
}

// Err returns the error that ended the stream, if any. Only read it after the
// pipeline has finished.
func (s *IteratorSource[T]) Err() error { return s.err }

func (s *IteratorSource[T]) close() {
	s.done = true
	if err := s.it.Close(); err != nil && s.err == nil {
		s.err = err
	}
}

// Batched groups consecutive items of src into slices of up to size items.
// The last batch may be shorter. size < 1 is treated as 1.
func Batched[T any](src Source[T], size int) Source[[]T] {
	if size < 1 {
		size = 1
	}
	done := false
	return SourceFunc[[]T](func() ([]T, bool) {
		if done {
			return nil, false
		}
		batch := make([]T, 0, size)
		for len(batch) < size {
			val, ok := src.Next()
			if !ok {
				done = true
				break
			}
			batch = append(batch, val)
		}
		if len(batch) == 0 {
			return nil, false
		}
		return batch, true
	})
}
