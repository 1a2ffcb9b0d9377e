// Package retry runs fallible operations with a bounded number of attempts and
// a fixed delay between them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults match the behaviour of a typical scheduled run: ten attempts, five
// seconds apart.
const (
	DefaultMaxAttempts = 10
	DefaultDelay       = 5 * time.Second
)

// ErrExhausted is the "no result" signal returned when every attempt failed.
// Callers must treat it as the operation not having produced a value.
var ErrExhausted = errors.New("no result: retries exhausted")

// Policy controls how Do retries an operation.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// Delay is the constant wait between attempts.
	Delay time.Duration

	// IsPermanent classifies errors that must not be retried.
	// Errors wrapped with Permanent are never retried regardless.
	IsPermanent func(error) bool

	// OnRetry is called after a failed attempt, before waiting.
	OnRetry func(attempt int, err error, wait time.Duration)

	timer backoff.Timer
}

// DefaultPolicy returns a Policy with DefaultMaxAttempts and DefaultDelay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
	}
}

// Permanent marks err as fatal so Do returns it without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do invokes op until it succeeds, fails permanently, or MaxAttempts
// invocations have failed. On exhaustion the returned error wraps both
// ErrExhausted and the last failure. Permanent failures are returned unwrapped.
// The wait between attempts ends early only if ctx is cancelled.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay < 0 {
		delay = 0
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	var (
		n         int
		lastErr   error
		permanent bool
	)
	operation := func() (T, error) {
		n++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			permanent = true
			return v, err
		}
		if p.IsPermanent != nil && p.IsPermanent(err) {
			permanent = true
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(n, err, wait)
		}
	}

	v, err := backoff.RetryNotifyWithTimerAndData(operation, b, notify, p.timer)
	if err == nil {
		return v, nil
	}

	var zero T
	if permanent {
		return zero, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("retry cancelled after %d attempt(s): %w", n, ctxErr)
	}
	return zero, fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, n, lastErr)
}

// Run is Do for operations that produce no value.
func Run(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
