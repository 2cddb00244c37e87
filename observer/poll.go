package observer

import (
	"context"
	"time"
)

// Policy bounds a poll: at most MaxAttempts checks, Interval apart.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// CheckFunc reports whether the awaited condition holds. An error counts as
// "not yet".
type CheckFunc func(ctx context.Context) (bool, error)

type Result struct {
	Attempts  int
	Satisfied bool
	// LastErr is the error from the most recent failed check, if any.
	LastErr error
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poll runs check until it returns true, the policy's attempts are used up
// or ctx is done. It never sleeps after the final attempt.
func Poll(ctx context.Context, p Policy, check CheckFunc) Result {
	return p.poll(ctx, check, sleepContext)
}

func (p Policy) poll(ctx context.Context, check CheckFunc, sleep sleepFunc) Result {
	res := Result{}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			if res.LastErr == nil {
				res.LastErr = ctx.Err()
			}
			return res
		}
		res.Attempts++
		ok, err := check(ctx)
		if err != nil {
			res.LastErr = err
		} else if ok {
			res.Satisfied = true
			return res
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			res.LastErr = err
			return res
		}
	}
	return res
}
