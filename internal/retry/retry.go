// Package retry runs operations with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how many times an operation runs and how long to wait
// between runs. The wait before retry n (0-based) is BaseDelay * 2^n.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Sleep     SleepFunc
}

// Delayer is implemented by errors that carry a server-provided wait, such
// as a Retry-After header. The larger of the hint and the backoff is used,
// capped at MaxDelay when one is set. A zero hint leaves the backoff alone.
type Delayer interface {
	RetryDelay() time.Duration
}

// Backoff returns the delay before retry n.
func (p Policy) Backoff(n int) time.Duration {
	d := p.BaseDelay << uint(n)
	if d < p.BaseDelay {
		d = p.MaxDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts are used up. It returns the number of calls made and the last
// error. A nil retryable retries every error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return i + 1, nil
		}
		if retryable != nil && !retryable(err) {
			return i + 1, err
		}
		if i == attempts-1 {
			break
		}
		wait := p.Backoff(i)
		var d Delayer
		if errors.As(err, &d) && d.RetryDelay() > wait {
			wait = d.RetryDelay()
			if p.MaxDelay > 0 && wait > p.MaxDelay {
				wait = p.MaxDelay
			}
		}
		if serr := sleep(ctx, wait); serr != nil {
			return i + 1, err
		}
	}
	return attempts, err
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
