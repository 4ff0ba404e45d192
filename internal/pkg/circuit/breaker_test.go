package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("price", 2, time.Minute)
	b.now = func() time.Time { return now }

	boom := errors.New("boom")
	fail := func() error { return boom }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Do(fail, nil), boom)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(fail, nil), boom)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Do(ok, nil), ErrOpen)

	now = now.Add(time.Minute)
	assert.NoError(t, b.Do(ok, nil))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIgnoresUncountedErrors(t *testing.T) {
	b := New("news", 1, time.Minute)
	skip := errors.New("cancelled")
	err := b.Do(func() error { return skip }, func(err error) bool { return !errors.Is(err, skip) })
	assert.ErrorIs(t, err, skip)
	assert.Equal(t, StateClosed, b.State())
}
