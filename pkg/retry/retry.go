// Package retry runs an operation under a bounded back-off policy.
//
// One Policy type covers both the linear schedule used for registrations
// (attempt * base) and the exponential schedule with jitter used for raw
// metadata updates.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy selects how the wait between attempts grows
type Strategy string

const (
	Linear      Strategy = "linear"
	Exponential Strategy = "exponential"
)

// Policy describes a bounded retry schedule
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Strategy    Strategy
	// Jitter is the fraction of each delay that may be added at random (0.3 = up to +30%).
	Jitter float64
	// Notify is called before each wait with the attempt that just failed.
	Notify func(attempt int, err error, wait time.Duration)
}

// LinearPolicy waits attempt*base between attempts
func LinearPolicy(maxAttempts int, base time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: base, Strategy: Linear}
}

// ExponentialPolicy waits base*2^(attempt-1) plus jitter between attempts
func ExponentialPolicy(maxAttempts int, base time.Duration, jitter float64) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: base, Strategy: Exponential, Jitter: jitter}
}

// ExhaustedError is returned when every attempt failed with a retryable error
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Permanent marks err as non-retryable. Do returns it unwrapped after the
// current attempt.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, the context ends or
// the policy runs out of attempts. It returns the number of attempts made.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(maxAttempts-1)), ctx)

	attempts := 0
	var lastErr error
	var permanent bool

	operation := func() error {
		attempts++
		err := op(ctx, attempts)
		lastErr = err
		var perr *backoff.PermanentError
		permanent = errors.As(err, &perr)
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.Notify != nil {
			p.Notify(attempts, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)
	switch {
	case err == nil:
		return attempts, nil
	case permanent:
		return attempts, err
	case ctx.Err() != nil:
		if lastErr != nil {
			return attempts, fmt.Errorf("%w after %d attempts (last error: %v)", ctx.Err(), attempts, lastErr)
		}
		return attempts, ctx.Err()
	default:
		return attempts, &ExhaustedError{Attempts: attempts, Err: err}
	}
}

func (p Policy) backOff() backoff.BackOff {
	if p.Strategy == Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.BaseDelay
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		eb.MaxInterval = p.maxDelay()
		return &jittered{BackOff: eb, jitter: p.Jitter}
	}
	return &jittered{BackOff: &linearBackOff{base: p.BaseDelay, max: p.maxDelay()}, jitter: p.Jitter}
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return time.Minute
}

// linearBackOff grows the delay by base on every call
type linearBackOff struct {
	base time.Duration
	max  time.Duration
	n    int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	d := time.Duration(l.n) * l.base
	if d > l.max {
		return l.max
	}
	return d
}

func (l *linearBackOff) Reset() {
	l.n = 0
}

// jittered adds up to jitter*d of random delay on top of the wrapped schedule
type jittered struct {
	backoff.BackOff
	jitter float64
}

func (j *jittered) NextBackOff() time.Duration {
	d := j.BackOff.NextBackOff()
	if d == backoff.Stop || j.jitter <= 0 || d <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*j.jitter*float64(d))
}
