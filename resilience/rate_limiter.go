package resilience

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/kbukum/slotpipe/validation"
)

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of items allowed per second. Zero disables limiting.
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is the maximum burst size. Defaults to the rate rounded up.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// Enabled reports whether a positive rate is configured.
func (c RateLimiterConfig) Enabled() bool {
	return c.Rate > 0
}

// Validate checks the configuration.
func (c *RateLimiterConfig) Validate() error {
	return validation.Validate(c)
}

// RateLimiter is a token bucket limiter.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter. A non-positive rate yields a limiter
// that never blocks.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if !cfg.Enabled() {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.Rate))
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow reports whether one item may proceed now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until one item may proceed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}

// Rate returns the configured rate in items per second.
func (rl *RateLimiter) Rate() float64 {
	return float64(rl.limiter.Limit())
}

// Burst returns the burst size.
func (rl *RateLimiter) Burst() int {
	return rl.limiter.Burst()
}
