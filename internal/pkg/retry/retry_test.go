package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoneRunsOnce(t *testing.T) {
	calls := 0
	err := None{}.Do(context.Background(), func() error { calls++; return errors.New("x") })
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetriesUntilSuccess(t *testing.T) {
	calls := 0
	b := Backoff{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}
	err := b.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffStopsOnPermanentError(t *testing.T) {
	perm := errors.New("404")
	calls := 0
	b := Backoff{MaxRetries: 5, BaseDelay: time.Millisecond, Retryable: func(err error) bool { return !errors.Is(err, perm) }}
	err := b.Do(context.Background(), func() error { calls++; return perm })
	assert.ErrorIs(t, err, perm)
	assert.Equal(t, 1, calls)
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	b := Backoff{MaxRetries: 5, BaseDelay: time.Hour}
	err := b.Do(ctx, func() error { calls++; cancel(); return errors.New("down") })
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestBackoffDelayCapped(t *testing.T) {
	b := Backoff{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, time.Duration(0), b.Delay(0))
	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 200*time.Millisecond, b.Delay(2))
	assert.Equal(t, 300*time.Millisecond, b.Delay(3))
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, None{}, FromConfig(0, time.Second, time.Second, 2, nil))
	assert.IsType(t, Backoff{}, FromConfig(2, time.Second, time.Second, 2, nil))
}
