package generation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollUntilTerminal(t *testing.T) {
	ctx := context.Background()
	opts := PollOptions{Interval: time.Millisecond, Timeout: time.Second}

	t.Run("done after retries", func(t *testing.T) {
		calls := 0
		err := PollUntilTerminal(ctx, opts, func(context.Context) (bool, error) {
			calls++
			return calls >= 3, nil
		})
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if calls != 3 {
			t.Fatalf("calls = %d, want 3", calls)
		}
	})

	t.Run("check error stops the loop", func(t *testing.T) {
		boom := errors.New("boom")
		err := PollUntilTerminal(ctx, opts, func(context.Context) (bool, error) {
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		err := PollUntilTerminal(ctx, PollOptions{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}, func(context.Context) (bool, error) {
			return false, nil
		})
		if !errors.Is(err, ErrPollTimeout) {
			t.Fatalf("err = %v, want ErrPollTimeout", err)
		}
	})

	t.Run("context cancel", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := PollUntilTerminal(canceled, opts, func(context.Context) (bool, error) {
			return false, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}
