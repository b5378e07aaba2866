package slot

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for capacity 0")
		}
	}()
	New[int](0)
}

func TestStoreAndTake(t *testing.T) {
	a := New[string](3)
	if a.Cap() != 3 {
		t.Fatalf("expected cap 3, got %d", a.Cap())
	}
	if !a.IsEmpty(1) {
		t.Fatal("expected new slot to be empty")
	}
	if !a.Store(1, "x") {
		t.Fatal("expected store into empty slot to succeed")
	}
	if a.Store(1, "y") {
		t.Fatal("expected store into occupied slot to fail")
	}
	if a.IsEmpty(1) {
		t.Fatal("expected slot 1 to be occupied")
	}
	if _, ok := a.Take(0); ok {
		t.Fatal("expected take from empty slot to fail")
	}
	v, ok := a.Take(1)
	if !ok || v != "x" {
		t.Fatalf("expected x, got %q (%v)", v, ok)
	}
	if !a.AllEmpty() {
		t.Fatal("expected array to be empty after take")
	}
}

func TestPutAndClaim(t *testing.T) {
	a := New[int](2)
	if !a.Put(1) || !a.Put(2) {
		t.Fatal("expected two puts to succeed")
	}
	if a.Put(3) {
		t.Fatal("expected put into full array to fail")
	}
	if a.Occupied() != 2 {
		t.Fatalf("expected 2 occupied, got %d", a.Occupied())
	}

	sum := 0
	for {
		v, ok := a.Claim()
		if !ok {
			break
		}
		sum += v
	}
	if sum != 3 {
		t.Errorf("expected claimed items to sum to 3, got %d", sum)
	}
	if a.Occupied() != 0 {
		t.Errorf("expected 0 occupied, got %d", a.Occupied())
	}
}

func TestZeroValueItemsAreStored(t *testing.T) {
	a := New[int](1)
	if !a.Put(0) {
		t.Fatal("expected put of zero value to succeed")
	}
	if a.AllEmpty() {
		t.Fatal("a slot holding the zero value is not empty")
	}
	if v, ok := a.Claim(); !ok || v != 0 {
		t.Fatalf("expected to claim 0, got %d (%v)", v, ok)
	}
}

// Every item put into the array must be claimed exactly once, however many
// goroutines race on both ends.
func TestConcurrentHandOff(t *testing.T) {
	const (
		writers = 4
		readers = 4
		perW    = 2000
	)
	a := New[int](writers + 1)

	seen := make([]atomic.Int32, writers*perW)
	var claimed atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				for !a.Put(w*perW + i) {
					runtime.Gosched()
				}
			}
		}(w)
	}

	var rg sync.WaitGroup
	for r := 0; r < readers; r++ {
		rg.Add(1)
		go func() {
			defer rg.Done()
			for claimed.Load() < writers*perW {
				if v, ok := a.Claim(); ok {
					seen[v].Add(1)
					claimed.Add(1)
					continue
				}
				runtime.Gosched()
			}
		}()
	}

	wg.Wait()
	rg.Wait()

	for i := range seen {
		if n := seen[i].Load(); n != 1 {
			t.Fatalf("item %d claimed %d times", i, n)
		}
	}
}
