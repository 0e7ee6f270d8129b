package generation

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned when a job does not reach a terminal state
// within the poller's deadline.
var ErrPollTimeout = errors.New("poll timeout")

// PollOptions controls the cadence of PollUntilTerminal.
type PollOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultPollOptions mirrors the client-side cadence: one check per second,
// bounded at two minutes.
var DefaultPollOptions = PollOptions{Interval: time.Second, Timeout: 2 * time.Minute}

// PollUntilTerminal invokes check at a fixed interval until it reports a
// terminal result, the timeout elapses, or the context is canceled. Errors
// from check stop the loop; checks are expected to be idempotent reads.
func PollUntilTerminal(ctx context.Context, opts PollOptions, check func(context.Context) (done bool, err error)) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollOptions.Interval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPollOptions.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrPollTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
