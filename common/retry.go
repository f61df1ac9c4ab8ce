package common

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryPolicy controls Retry: MaxAttempts tries, waiting Delay after the
// first failure and multiplying the wait by Backoff after each one.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// DefaultRetryPolicy is 3 attempts, 2s initial delay, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: 2.0}
}

// NoWait returns a copy of p that does not sleep between attempts.
func (p RetryPolicy) NoWait() RetryPolicy {
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

// Retry runs fn until it succeeds, returns a permanent error, the context is
// done, or the attempts are exhausted. The last error is returned.
func Retry(ctx context.Context, p RetryPolicy, logger *slog.Logger, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay
	backoff := p.Backoff
	if backoff < 1 {
		backoff = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil || attempt == attempts {
			break
		}
		if logger != nil {
			logger.Warn("retrying after failure", "op", op, "attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return errors.Join(err, serr)
		}
		delay = time.Duration(float64(delay) * backoff)
	}
	return unwrapPermanent(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so Retry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func unwrapPermanent(err error) error {
	if p, ok := err.(*permanentError); ok {
		return p.err
	}
	return err
}
