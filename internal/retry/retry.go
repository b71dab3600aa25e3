// Package retry implements the shared backoff policy for strategies that can
// fail under contention. Conflicts are retried with capped exponential
// backoff plus jitter; everything else surfaces immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"contend/internal/store"
)

// ErrAttemptsExhausted indicates a retryable operation ran out of attempts
// while still conflicting.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy configures the controller. The zero value is not usable; call
// DefaultPolicy or fill every field.
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// DefaultPolicy matches the contention level of the standard benchmark
// scenario: high enough that correctness-oriented strategies converge, finite
// so runs terminate.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 50,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Second,
	}
}

// Controller drives retry loops. Safe for concurrent use by many workers.
type Controller struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(policy Policy) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Controller{
		policy: policy,
		sleep:  sleepCtx,
	}
}

// Do invokes fn until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. It returns the number of attempts made and the
// final error: nil, ErrAttemptsExhausted (wrapped), the non-retryable error,
// or the context error if a backoff sleep was interrupted.
func (c *Controller) Do(ctx context.Context, fn func() error) (int, error) {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return attempt, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return attempt, err
		}
		if attempt >= c.policy.MaxAttempts {
			return attempt, fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, attempt, err)
		}
		if err := c.sleep(ctx, jitter(c.backoff(attempt))); err != nil {
			return attempt, err
		}
	}
}

// backoff returns the pre-jitter delay before retry number attempt+1:
// exponential from BaseDelay, capped at MaxDelay. Non-negative and
// non-decreasing in attempt.
func (c *Controller) backoff(attempt int) time.Duration {
	if c.policy.BaseDelay <= 0 {
		return 0
	}
	shift := attempt - 1
	// 2^shift would overflow well before this; treat it as capped.
	if shift > 30 {
		return c.policy.MaxDelay
	}
	d := c.policy.BaseDelay << uint(shift)
	if c.policy.MaxDelay > 0 && d > c.policy.MaxDelay {
		return c.policy.MaxDelay
	}
	return d
}

// jitter spreads workers that conflicted in the same instant, adding up to
// half the base delay so retries do not re-collide in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
