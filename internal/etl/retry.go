package etl

import (
	"context"
	"time"
)

// Policy bounds retries of transient failures with capped exponential backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the wait before retry number n (1-based) after failure f.
func (p Policy) Delay(n int, f *Failure) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < n; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			break
		}
	}
	delay := time.Duration(d)
	if f != nil && f.Kind == KindRateLimited && f.RetryAfter > delay {
		delay = f.RetryAfter
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// RetryHook is told about every failed attempt that will be retried.
type RetryHook func(attempt int, f *Failure, wait time.Duration)

// Retry runs op until it succeeds, fails with a non-transient kind, or
// MaxAttempts is reached. It returns the number of attempts made.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), onRetry RetryHook) (T, int, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, attempt, nil
		}

		f := AsFailure(err)
		if !f.Kind.Transient() || attempt >= maxAttempts {
			return zero, attempt, withAttempts(f, attempt)
		}

		wait := p.Delay(attempt, f)
		if onRetry != nil {
			onRetry(attempt, f, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			cancelled := newFailure(KindTimeout, ctx.Err(), "gave up waiting to retry after %s", f.Kind)
			return zero, attempt, withAttempts(cancelled, attempt)
		case <-timer.C:
		}
	}
}

func withAttempts(f *Failure, attempts int) *Failure {
	out := *f
	out.Attempts = attempts
	return &out
}
