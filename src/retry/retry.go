// Package retry provides a bounded retry loop driven by an acceptance predicate.
//
// Do is meant for eventually-consistent remote state ("job not created yet", "status
// still created"). Exhausting the attempt budget is not an error: the caller receives
// the last result and decides what it means. Errors returned by the operation itself
// abort the loop immediately and are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCanceled is returned (wrapped together with the context error) when the context
// ends before an accepted result or the end of the budget.
var ErrCanceled = errors.New("retry canceled")

// Policy is an attempt cap plus a fixed delay between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// String renders the policy for logs.
func (p Policy) String() string {
	return fmt.Sprintf("%d attempts every %s", p.attempts(), p.delay())
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) delay() time.Duration {
	if p.Delay < 0 {
		return 0
	}
	return p.Delay
}

// Attempt describes one invocation of the operation.
type Attempt[R any] struct {
	Number   int
	Result   R
	Accepted bool
}

type options[R any] struct {
	onAttempt func(Attempt[R])
}

// Option configures a single Do call.
type Option[R any] func(*options[R])

// OnAttempt registers a hook called after every completed, error-free attempt.
func OnAttempt[R any](fn func(Attempt[R])) Option[R] {
	return func(o *options[R]) {
		o.onAttempt = fn
	}
}

// Do calls op until accept reports true or policy.MaxAttempts calls have been made,
// sleeping policy.Delay between calls. It returns the last result in both cases.
//
// An error from op is returned as-is on first occurrence. If ctx ends while waiting,
// the last result is returned with an error matching both ErrCanceled and ctx.Err().
func Do[R any](ctx context.Context, op func(ctx context.Context) (R, error), accept func(R) bool, policy Policy, opts ...Option[R]) (R, error) {
	var o options[R]
	for _, opt := range opts {
		opt(&o)
	}

	var last R
	if err := ctx.Err(); err != nil {
		return last, canceled(err)
	}

	maxAttempts := policy.attempts()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err != nil {
			return result, err
		}
		last = result

		ok := accept(result)
		if o.onAttempt != nil {
			o.onAttempt(Attempt[R]{Number: attempt, Result: result, Accepted: ok})
		}
		if ok || attempt >= maxAttempts {
			return last, nil
		}

		if timer == nil {
			timer = time.NewTimer(policy.delay())
		} else {
			timer.Reset(policy.delay())
		}
		select {
		case <-ctx.Done():
			return last, canceled(ctx.Err())
		case <-timer.C:
		}
	}
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
