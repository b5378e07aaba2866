package wait

import (
	"context"
	"fmt"
	"time"
)

// Waiter blocks a caller until the opposite side of a slot array signals
// progress, or until ctx is done.
type Waiter interface {
	// Wait blocks until a signal is available or ctx is done.
	Wait(ctx context.Context) error
	// Signal wakes at most one waiter, now or in the future.
	Signal()
	// SignalN wakes at most n waiters, now or in the future.
	SignalN(n int)
}

// Policy selects a Waiter implementation.
type Policy string

const (
	PolicySemaphore Policy = "semaphore"
	PolicyPoll      Policy = "poll"
)

// DefaultPollInterval is used by the poll policy when no interval is set.
const DefaultPollInterval = time.Millisecond

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	return p == PolicySemaphore || p == PolicyPoll
}

// New returns a Waiter for the given policy. interval is only used by
// PolicyPoll; a non-positive interval falls back to DefaultPollInterval.
func New(policy Policy, interval time.Duration) (Waiter, error) {
	switch policy {
	case PolicySemaphore:
		return NewSemaphore(), nil
	case PolicyPoll:
		return NewPoll(interval), nil
	default:
		return nil, fmt.Errorf("wait: unknown policy %q", policy)
	}
}
