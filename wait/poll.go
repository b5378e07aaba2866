package wait

import (
	"context"
	"time"
)

// Poll sleeps a fixed interval on every Wait. Signals are ignored.
type Poll struct {
	interval time.Duration
}

var _ Waiter = (*Poll)(nil)

// NewPoll returns a polling waiter.
func NewPoll(interval time.Duration) *Poll {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poll{interval: interval}
}

// Interval returns the sleep interval.
func (p *Poll) Interval() time.Duration { return p.interval }

// Wait sleeps one interval, returning early with ctx.Err() if ctx is done.
func (p *Poll) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poll) Signal() {}

func (p *Poll) SignalN(int) {}
