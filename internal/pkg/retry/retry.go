// Package retry holds the retry policies used at HTTP client boundaries.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy 决定一次调用失败后是否以及何时重试。
type Policy interface {
	Do(ctx context.Context, fn func() error) error
}

// None runs fn exactly once.
type None struct{}

func (None) Do(_ context.Context, fn func() error) error { return fn() }

// Backoff 指数退避重试；Retryable 为 nil 时所有错误都重试。
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Retryable  func(error) bool
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(b.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

func (b Backoff) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(b.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
	}
	if b.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// FromConfig returns None when maxRetries is zero.
func FromConfig(maxRetries int, base, max time.Duration, mult float64, retryable func(error) bool) Policy {
	if maxRetries <= 0 {
		return None{}
	}
	return Backoff{MaxRetries: maxRetries, BaseDelay: base, MaxDelay: max, Multiplier: mult, Retryable: retryable}
}
