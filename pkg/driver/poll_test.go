package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_withDefaults(t *testing.T) {
	assert.Equal(t, DefaultOptions(), Options{}.withDefaults())

	o := Options{Timeout: time.Second, Interval: 2 * time.Second, Backoff: 0.5}.withDefaults()
	assert.Equal(t, time.Second, o.Timeout)
	assert.Equal(t, 2*time.Second, o.Interval)
	assert.Equal(t, 2*time.Second, o.MaxInterval, "max interval never below interval")
	assert.InDelta(t, 1.5, o.Backoff, 0.001)
}

func TestPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("interval grows with backoff up to max", func(t *testing.T) {
		o := Options{Timeout: 500 * time.Millisecond, Interval: 10 * time.Millisecond, MaxInterval: 40 * time.Millisecond, Backoff: 2}
		var stamps []time.Time
		_, err := poll(ctx, o, func(context.Context) (bool, error) {
			stamps = append(stamps, time.Now())
			return len(stamps) == 5, nil
		})
		require.NoError(t, err)
		require.Len(t, stamps, 5)
		// expected gaps 10, 20, 40, 40 ms
		assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 20*time.Millisecond)
		assert.GreaterOrEqual(t, stamps[4].Sub(stamps[3]), 40*time.Millisecond)
		assert.Less(t, stamps[4].Sub(stamps[3]), 200*time.Millisecond)
	})

	t.Run("timeout keeps last error and checks at deadline", func(t *testing.T) {
		o := Options{Timeout: 100 * time.Millisecond, Interval: 60 * time.Millisecond, MaxInterval: 60 * time.Millisecond, Backoff: 1}
		start := time.Now()
		calls := 0
		lastErr, err := poll(ctx, o, func(context.Context) (bool, error) {
			calls++
			if calls == 1 {
				return false, errors.New("first")
			}
			return false, nil
		})
		require.ErrorIs(t, err, errTimeout)
		require.EqualError(t, lastErr, "first")
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Equal(t, 3, calls, "checks at 0, 20ms and at the 30ms deadline")
	})

	t.Run("canceled context stops polling", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := poll(cctx, Options{Timeout: time.Minute, Interval: 5 * time.Millisecond, MaxInterval: 5 * time.Millisecond, Backoff: 1},
			func(context.Context) (bool, error) { return false, nil })
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("immediate success does not wait", func(t *testing.T) {
		start := time.Now()
		_, err := poll(ctx, Options{Timeout: time.Minute, Interval: time.Minute, MaxInterval: time.Minute, Backoff: 1},
			func(context.Context) (bool, error) { return true, nil })
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}
