package pipeline

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
	"github.com/kbukum/slotpipe/wait"
)

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func TestProducer_IdleOnlyAfterSlotsDrain(t *testing.T) {
	for _, policy := range []wait.Policy{wait.PolicySemaphore, wait.PolicyPoll} {
		t.Run(string(policy), func(t *testing.T) {
			// Four workers give five slots, enough to hold the whole source.
			p, err := NewProducer(FromSlice([]int{1, 2, 3}), testConfig(4, policy), WithLogger(logger.Nop()))
			if err != nil {
				t.Fatalf("NewProducer: %v", err)
			}
			if p.EOF() || p.Idle() {
				t.Fatal("expected a fresh producer to be neither at EOF nor idle")
			}

			p.Start(context.Background())
			eventually(t, p.EOF, "end of data")
			waitClosed(t, p.Done(), "producer")

			if p.Idle() {
				t.Fatal("expected producer with filled slots not to be idle at EOF")
			}

			var got []int
			for i := 0; i < 3; i++ {
				item, ok := p.GetItem(context.Background())
				if !ok {
					t.Fatalf("GetItem %d: expected an item", i)
				}
				got = append(got, item)
			}
			slices.Sort(got)
			if !slices.Equal(got, []int{1, 2, 3}) {
				t.Errorf("expected {1,2,3}, got %v", got)
			}
			if !p.Idle() {
				t.Error("expected producer to be idle once every slot is claimed")
			}
			if _, ok := p.GetItem(context.Background()); ok {
				t.Error("expected GetItem on an idle producer to return false")
			}
		})
	}
}

func TestProducer_BlocksWhenSlotsFull(t *testing.T) {
	// One worker gives two slots; the third item waits for a claim.
	p, err := NewProducer(FromSlice([]int{1, 2, 3}), testConfig(1, wait.PolicySemaphore), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	p.Start(context.Background())
	eventually(t, func() bool { return p.slots.Occupied() == 2 }, "slots to fill")

	time.Sleep(5 * time.Millisecond)
	if p.EOF() {
		t.Fatal("expected producer to block with a pending item")
	}

	// The source is only polled into a free slot, so end of data is seen
	// once a claim leaves a slot empty after the last item.
	var got []int
	for i := 0; i < 3; i++ {
		item, ok := p.GetItem(context.Background())
		if !ok {
			t.Fatalf("GetItem %d: expected an item", i)
		}
		got = append(got, item)
	}
	eventually(t, p.EOF, "end of data after the last claim")
	if _, ok := p.GetItem(context.Background()); ok {
		t.Error("expected no more items")
	}
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("expected {1,2,3}, got %v", got)
	}
}

func TestProducer_GetItemWakesOnEOF(t *testing.T) {
	release := make(chan struct{})
	src := SourceFunc[int](func() (int, bool) {
		<-release
		return 0, false
	})
	p, err := NewProducer[int](src, testConfig(3, wait.PolicySemaphore), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	p.Start(context.Background())

	const waiters = 3
	var wg sync.WaitGroup
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := p.GetItem(context.Background())
			results <- ok
		}()
	}

	time.Sleep(5 * time.Millisecond)
	close(release)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	waitClosed(t, finished, "blocked GetItem callers")
	close(results)
	for ok := range results {
		if ok {
			t.Error("expected no item from an empty source")
		}
	}
}

func TestProducer_ContextCancelEndsRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	infinite := SourceFunc[int](func() (int, bool) { return 1, true })
	p, err := NewProducer[int](infinite, testConfig(2, wait.PolicySemaphore), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	p.Start(ctx)
	eventually(t, func() bool { return p.slots.Occupied() == 3 }, "slots to fill")

	cancel()
	waitClosed(t, p.Done(), "producer")
	if !p.EOF() {
		t.Error("expected cancellation to raise end of data")
	}
	if _, ok := p.GetItem(ctx); ok {
		t.Error("expected GetItem with a cancelled context to return false")
	}
	if n := p.discard(); n != 3 {
		t.Errorf("expected 3 discarded items, got %d", n)
	}
	if !p.Idle() {
		t.Error("expected idle after discard")
	}
}

func TestConsumer_NoLossOnShutDown(t *testing.T) {
	for _, policy := range []wait.Policy{wait.PolicySemaphore, wait.PolicyPoll} {
		t.Run(string(policy), func(t *testing.T) {
			sink := &Collector[int]{}
			slow := SinkFunc[int](func(n int) {
				time.Sleep(50 * time.Microsecond)
				sink.Accept(n)
			})
			c, err := NewConsumer[int](slow, testConfig(3, policy), WithLogger(logger.Nop()))
			if err != nil {
				t.Fatalf("NewConsumer: %v", err)
			}
			c.Start()
			for i := 0; i < 40; i++ {
				c.PushItem(i)
			}
			c.ShutDown()

			if got := sorted(sink.Items()); !slices.Equal(got, seq(40)) {
				t.Errorf("expected every pushed item delivered, got %d", len(got))
			}
			if !c.Idle() {
				t.Error("expected consumer idle after shutdown")
			}
		})
	}
}

func TestConsumer_ShutDownWithoutStart(t *testing.T) {
	c, err := NewConsumer[int](&Collector[int]{}, testConfig(1, wait.PolicySemaphore), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	done := make(chan struct{})
	go func() {
		c.ShutDown()
		close(done)
	}()
	waitClosed(t, done, "ShutDown on an unstarted consumer")
}

func TestConsumer_PushBlocksWhileFull(t *testing.T) {
	gate := make(chan struct{})
	sink := SinkFunc[int](func(int) { <-gate })
	c, err := NewConsumer[int](sink, testConfig(1, wait.PolicySemaphore), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	c.Start()

	// One item sits in Accept, two fill the slots, the fourth must block.
	pushed := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			c.PushItem(i)
		}
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("expected PushItem to block on full slots")
	case <-time.After(10 * time.Millisecond):
	}
	close(gate)
	waitClosed(t, pushed, "blocked PushItem")
	c.ShutDown()
}

func TestNewStage_InvalidConfig(t *testing.T) {
	if _, err := NewProducer[int](nil, testConfig(1, wait.PolicyPoll)); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for nil source, got %v", err)
	}
	if _, err := NewConsumer[int](nil, testConfig(1, wait.PolicyPoll)); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for nil sink, got %v", err)
	}
	if _, err := NewConsumer[int](&Collector[int]{}, testConfig(-2, wait.PolicyPoll)); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for bad workers, got %v", err)
	}
}
