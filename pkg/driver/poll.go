package driver

import (
	"context"
	"errors"
	"time"
)

// Options controls condition polling used by every helper.
type Options struct {
	Timeout     time.Duration // overall wait for a condition
	Interval    time.Duration // first delay between checks
	MaxInterval time.Duration // upper bound for the growing delay
	Backoff     float64       // delay multiplier applied after each failed check
}

// DefaultOptions returns a few seconds bounded wait with a short, growing interval.
func DefaultOptions() Options {
	return Options{Timeout: 4 * time.Second, Interval: 100 * time.Millisecond, MaxInterval: time.Second, Backoff: 1.5}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	if o.MaxInterval < o.Interval {
		o.MaxInterval = max(def.MaxInterval, o.Interval)
	}
	if o.Backoff < 1 {
		o.Backoff = def.Backoff
	}
	return o
}

var errTimeout = errors.New("condition not met before timeout")

// poll calls check until it reports true, the timeout expires or ctx is canceled.
// A check error does not stop polling, the page may be in the middle of a navigation;
// the last one is returned as lastErr for the caller's failure message.
// One more check always happens at the deadline.
func poll(ctx context.Context, o Options, check func(ctx context.Context) (bool, error)) (lastErr, err error) {
	deadline := time.Now().Add(o.Timeout)
	interval := o.Interval
	for {
		ok, cerr := check(ctx)
		if ok {
			return nil, nil
		}
		if cerr != nil {
			lastErr = cerr
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return lastErr, errTimeout
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr, ctx.Err()
		case <-timer.C:
		}
		interval = min(time.Duration(float64(interval)*o.Backoff), o.MaxInterval)
	}
}
