package wait

import (
	"context"
	"math"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with no upper bound on pending signals.
//
// It is built on a weighted semaphore whose whole capacity is acquired up
// front: every Signal releases one unit and every Wait acquires one, so the
// available weight is exactly the number of unconsumed signals.
type Semaphore struct {
	w *semaphore.Weighted
}

var _ Waiter = (*Semaphore)(nil)

// NewSemaphore returns a semaphore with no pending signals.
func NewSemaphore() *Semaphore {
	w := semaphore.NewWeighted(math.MaxInt64)
	w.TryAcquire(math.MaxInt64)
	return &Semaphore{w: w}
}

// Wait consumes one signal, blocking until one is available or ctx is done.
func (s *Semaphore) Wait(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// Signal makes one signal available.
func (s *Semaphore) Signal() {
	s.w.Release(1)
}

// SignalN makes n signals available.
func (s *Semaphore) SignalN(n int) {
	if n > 0 {
		s.w.Release(int64(n))
	}
}
