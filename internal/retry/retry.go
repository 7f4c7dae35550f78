// Package retry provides a generic retry-with-exponential-backoff wrapper
// around fallible operations. Each call owns its own attempt counter, so
// it is safe to use concurrently from multiple workers.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrInvalidPolicy is returned when a policy fails validation.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Jitter bounds: delays are multiplied by a uniform factor in this range
// to avoid thundering-herd retries against the AI provider.
const (
	jitterMin = 0.8
	jitterMax = 1.2
)

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts before giving up.
	// Must be >= 1; with 1 the operation runs exactly once with no retry.
	MaxAttempts int

	// BaseDelay is the base of the exponential delay: the wait before
	// attempt n+1 is BaseDelay**n, capped at Cap.
	BaseDelay time.Duration

	// Cap is the maximum delay between attempts.
	Cap time.Duration

	// Jitter applies a uniform random factor in [0.8, 1.2] to each delay.
	Jitter bool

	// NonRetryable reports whether an error is permanent. Permanent
	// errors are returned immediately without consuming a retry.
	NonRetryable func(error) bool

	// sleep is injectable for tests; nil uses a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithSleep returns a copy of the policy using the given sleep function.
// Intended for tests that assert on computed delays.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.Join(ErrInvalidPolicy, errors.New("max attempts must be >= 1"))
	}
	if p.BaseDelay <= 0 {
		return errors.Join(ErrInvalidPolicy, errors.New("base delay must be positive"))
	}
	if p.Cap <= 0 {
		return errors.Join(ErrInvalidPolicy, errors.New("cap must be positive"))
	}
	return nil
}

// Delay returns the pre-jitter delay before the attempt following failed
// attempt number n (1-based): min(BaseDelay**n, Cap).
func (p Policy) Delay(attempt int) time.Duration {
	baseSeconds := p.BaseDelay.Seconds()
	delaySeconds := math.Pow(baseSeconds, float64(attempt))
	delay := time.Duration(delaySeconds * float64(time.Second))
	if delay > p.Cap || delay < 0 {
		delay = p.Cap
	}
	return delay
}

// Do invokes op until it succeeds, a non-retryable error occurs, the
// attempt budget is exhausted, or the context is cancelled. The last
// error from op is returned on exhaustion; context errors abort the wait
// between attempts.
func Do(ctx context.Context, policy Policy, op func() error) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempts := 0
	for {
		err := op()
		if err == nil {
			return nil
		}

		if policy.NonRetryable != nil && policy.NonRetryable(err) {
			return err
		}

		attempts++
		if attempts >= policy.MaxAttempts {
			return err
		}

		delay := policy.Delay(attempts)
		if policy.Jitter {
			factor := jitterMin + rand.Float64()*(jitterMax-jitterMin)
			delay = time.Duration(float64(delay) * factor)
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
