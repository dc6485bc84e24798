package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/croftbox/vidpipe/internal/domain"
)

// RetryPolicy is the single attempt/backoff contract applied to every
// transcode+upload unit. Delays grow exponentially from BaseDelay up to
// MaxDelay with jitter.
type RetryPolicy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs op, retrying failures the error taxonomy marks as transient.
// Non-retryable errors return immediately; retryable ones are re-attempted
// until the budget is exhausted, then the last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	backoff := retry.NewExponential(base)
	backoff = retry.WithJitterPercent(10, backoff)
	if p.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(p.MaxDelay, backoff)
	}
	backoff = retry.WithMaxRetries(attempts-1, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		var se *domain.StageError
		if errors.As(err, &se) && se.Retryable() {
			return retry.RetryableError(err)
		}
		return err
	})
}
