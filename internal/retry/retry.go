// Package retry bounds how hard the durable store driver leans on a
// transient SQLite "database is locked" condition before giving up. It is
// deliberately not used on the peer-forwarding path: the spec requires
// forward failures to surface immediately, leaving retries to the caller.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
)

// Config bounds one retry run's attempt count and backoff envelope.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns sensible defaults for a local SQLite driver
// recovering from a transient "database is locked" busy error: a handful
// of fast retries rather than the longer backoff envelope an external
// network call would warrant.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    200 * time.Millisecond,
		Jitter:      true,
	}
}

// backoffDelay computes the sleep before retry attempt try (1-indexed: the
// delay before the *second* call), doubling each attempt and capping at
// cfg.MaxDelay. With Jitter set, the full delay is scaled down by a random
// factor in [0.5, 1.0) so that callers retrying in lockstep don't collide.
func backoffDelay(cfg Config, try int) time.Duration {
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(try-1)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

// Do calls fn at most cfg.MaxAttempts times in total, retrying while fn's
// error is classified retryable by cerrors.IsRetryable. A non-retryable error, the
// final attempt's error, or context cancellation during the backoff sleep
// all return immediately.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var err error
	for try := 1; try <= cfg.MaxAttempts; try++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !cerrors.IsRetryable(err) || try == cfg.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(cfg, try)):
		}
	}
	return err
}
