// Package wait provides the backoff primitive used by slot arrays when no
// slot is in the state a caller needs.
//
// Two policies implement the same Waiter interface:
//
//   - Semaphore: a counting semaphore. The opposite side signals once per
//     slot it fills or frees, and a blocked caller wakes on the first signal.
//     Lowest latency, no CPU spent while idle.
//   - Poll: sleeps a fixed interval and ignores signals. Trades CPU for
//     simplicity and bounded wake latency.
//
// Callers must always rescan after Wait returns; a wake-up is a hint, never a
// guarantee that the awaited slot state still holds.
package wait
