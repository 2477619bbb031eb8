package llm

import (
	"context"
	"time"
)

// RetryPolicy is a bounded exponential backoff without jitter. It applies
// only to the idempotent catalog-refresh call; streaming and generation
// calls are fail-fast because replaying a half-consumed stream or a
// non-idempotent generation is unsafe.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt. Attempt n waits
	// BaseDelay * 2^(n-1) after failure n.
	BaseDelay time.Duration

	// sleep is injectable for testing. Defaults to a context-aware timer.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the configured defaults: 3 attempts, 500 ms base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do runs fn up to MaxAttempts times. Validation and Authentication errors
// abort immediately. When all attempts fail, the last real error is
// returned, never a synthetic one.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := p.BaseDelay << (attempt - 1)
		if err := sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
