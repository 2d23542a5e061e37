package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scgcore/quantd/pkg/loop"
)

func TestStart(t *testing.T) {

	t.Run("it repeats the task until it breaks", func(t *testing.T) {
		ctx := context.Background()

		total, err := loop.Start(ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
			v += 1
			if 5 <= v {
				return v, loop.Break(nil)
			}
			return v, loop.Continue(0)
		})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if total != 5 {
			t.Errorf("task ran %d times, expected 5", total)
		}
	})

	t.Run("it breaks with the task's error and the last value", func(t *testing.T) {
		ctx := context.Background()
		expected := errors.New("fake error")

		total, err := loop.Start(ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
			if v == 3 {
				return v, loop.Break(expected)
			}
			return v + 1, loop.Continue(0)
		})

		if !errors.Is(err, expected) {
			t.Errorf("unmatch error: %v", err)
		}
		if total != 3 {
			t.Errorf("unmatch last value: %d, expected 3", total)
		}
	})

	t.Run("it stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := loop.Start(ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
			return v + 1, loop.Continue(time.Millisecond)
		})

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got: %v", err)
		}
	})

	t.Run("it does not run the task when the context is already done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		_, err := loop.Start(ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
			ran = true
			return v, loop.Break(nil)
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected Canceled, got: %v", err)
		}
		if ran {
			t.Error("the task should not run on a done context")
		}
	})
}
