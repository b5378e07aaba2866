// Package slot implements a fixed-capacity array of single-item slots with
// atomic ownership hand-off.
//
// Each slot is either empty or holds exactly one item. Items move in and out
// only through compare-and-swap claims, so at most one goroutine ever observes
// a given item as its own: Store succeeds only on an empty slot and Take only
// on an occupied one. The array never grows.
package slot

import "sync/atomic"

// Array is a fixed set of slots. The zero value is not usable; use New.
type Array[T any] struct {
	cells []atomic.Pointer[T]
}

// New returns an array of n empty slots. It panics if n < 1.
func New[T any](n int) *Array[T] {
	if n < 1 {
		panic("slot: capacity must be at least 1")
	}
	return &Array[T]{cells: make([]atomic.Pointer[T], n)}
}

// Cap returns the number of slots.
func (a *Array[T]) Cap() int { return len(a.cells) }

// IsEmpty reports whether slot i currently holds no item.
func (a *Array[T]) IsEmpty(i int) bool {
	return a.cells[i].Load() == nil
}

// Store places v into slot i if the slot is empty. It reports whether the
// slot was claimed.
func (a *Array[T]) Store(i int, v T) bool {
	return a.cells[i].CompareAndSwap(nil, &v)
}

// Take removes and returns the item in slot i if the slot is occupied and no
// other goroutine claims it first.
func (a *Array[T]) Take(i int) (T, bool) {
	p := a.cells[i].Load()
	if p == nil || !a.cells[i].CompareAndSwap(p, nil) {
		var zero T
		return zero, false
	}
	return *p, true
}

// Put stores v into the first empty slot found by a single scan. It reports
// false if every slot was occupied during the scan.
func (a *Array[T]) Put(v T) bool {
	box := &v
	for i := range a.cells {
		if a.cells[i].Load() == nil && a.cells[i].CompareAndSwap(nil, box) {
			return true
		}
	}
	return false
}

// Claim removes and returns the item from the first occupied slot found by a
// single scan. It reports false if no item could be claimed.
func (a *Array[T]) Claim() (T, bool) {
	for i := range a.cells {
		if v, ok := a.Take(i); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// AllEmpty reports whether every slot was empty while scanned. The answer can
// be stale by the time it is returned unless the caller knows no writer is
// active.
func (a *Array[T]) AllEmpty() bool {
	for i := range a.cells {
		if a.cells[i].Load() != nil {
			return false
		}
	}
	return true
}

// Occupied counts the slots holding an item during a single scan.
func (a *Array[T]) Occupied() int {
	n := 0
	for i := range a.cells {
		if a.cells[i].Load() != nil {
			n++
		}
	}
	return n
}
