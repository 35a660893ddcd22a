package etl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetry_TransientExhaustsAttempts(t *testing.T) {
	calls := 0
	retries := 0
	_, attempts, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, newFailure(KindServer, nil, "upstream status=503")
	}, func(attempt int, f *Failure, wait time.Duration) {
		retries++
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 || attempts != 3 {
		t.Errorf("calls=%d attempts=%d, want 3", calls, attempts)
	}
	if retries != 2 {
		t.Errorf("retry hook called %d times, want 2", retries)
	}
	f := AsFailure(err)
	if f.Kind != KindServer || f.Attempts != 3 {
		t.Errorf("got %s after %d attempts", f.Kind, f.Attempts)
	}
}

func TestRetry_NonTransientIsNotRetried(t *testing.T) {
	for _, kind := range []Kind{KindClient, KindDecode, KindSink} {
		calls := 0
		_, attempts, err := Retry(context.Background(), fastPolicy(4), func(ctx context.Context) (any, error) {
			calls++
			return nil, newFailure(kind, nil, "boom")
		}, nil)
		if KindOf(err) != kind {
			t.Errorf("%s: got %v", kind, err)
		}
		if calls != 1 || attempts != 1 {
			t.Errorf("%s: calls=%d attempts=%d, want 1", kind, calls, attempts)
		}
	}
}

func TestRetry_RateLimitedThenSuccess(t *testing.T) {
	calls := 0
	out, attempts, err := Retry(context.Background(), fastPolicy(4), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			f := newFailure(KindRateLimited, nil, "rate limited")
			f.RetryAfter = 2 * time.Millisecond
			return "", f
		}
		return "ok", nil
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || attempts != 2 {
		t.Errorf("got %q after %d attempts", out, attempts)
	}
}

func TestRetry_ForeignErrorIsClientError(t *testing.T) {
	_, attempts, err := Retry(context.Background(), fastPolicy(4), func(ctx context.Context) (int, error) {
		return 0, errors.New("plain error")
	}, nil)
	if KindOf(err) != KindClient || attempts != 1 {
		t.Errorf("got %v after %d attempts", err, attempts)
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}

	_, attempts, err := Retry(ctx, p, func(ctx context.Context) (int, error) {
		return 0, newFailure(KindNetwork, nil, "connection reset")
	}, func(attempt int, f *Failure, wait time.Duration) {
		cancel()
	})

	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts: got %d, want 1", attempts)
	}
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()

	if d := p.Delay(1, nil); d != time.Second {
		t.Errorf("first delay: got %v", d)
	}
	if d := p.Delay(3, nil); d != 4*time.Second {
		t.Errorf("third delay: got %v", d)
	}
	if d := p.Delay(20, nil); d != 60*time.Second {
		t.Errorf("capped delay: got %v", d)
	}

	f := &Failure{Kind: KindRateLimited, RetryAfter: 10 * time.Second}
	if d := p.Delay(1, f); d != 10*time.Second {
		t.Errorf("Retry-After delay: got %v", d)
	}
	f.RetryAfter = 10 * time.Minute
	if d := p.Delay(1, f); d != 60*time.Second {
		t.Errorf("Retry-After should be capped, got %v", d)
	}
}
