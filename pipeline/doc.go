// Package pipeline runs a CPU-bound transform between a single source and a
// single sink on a bounded set of worker goroutines.
//
// Three stages are scheduled independently:
//
//   - Producer owns the source. Its backing goroutine keeps Workers+1 slots
//     filled and raises end-of-data once the source is exhausted.
//   - Workers claim one item at a time from the producer, transform it and
//     push the result to the consumer.
//   - Consumer owns the sink. Its backing goroutine empties its own
//     Workers+1 slots into the sink, and drains every remaining slot before
//     it exits.
//
// Only the producer goroutine touches the source and only the consumer
// goroutine touches the sink, so neither needs to be safe for concurrent use.
// Fixed slot arrays bound the number of items alive at any time; a slow sink
// throttles the workers, which in turn throttle the source.
//
// Output order is NOT preserved. Tag items with a sequence number before the
// source and re-sort in the sink if order matters.
//
// # Usage
//
//	pool, err := pipeline.NewPool(cfg,
//	    pipeline.FromSlice([]int{1, 2, 3, 4, 5}),
//	    func(_ context.Context, n int) (int, error) { return n * 2, nil },
//	    collector,
//	)
//	if err != nil {
//	    return err
//	}
//	err = pool.Run(ctx)
//
// # Failures
//
// A transform that returns an error or panics aborts the run: the producer
// stops reading, the other workers finish the item they hold, the consumer
// drains what it already has, and WaitForFinish returns the first failure as
// an *errors.AppError. Items still parked in producer slots are counted as
// dropped.
package pipeline
