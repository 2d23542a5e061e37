// Package loop runs a task over and over until the task says stop.
//
// It is the backbone of every polling activity in quantd: each poll of the
// instrument software's drop directories is one iteration of a loop.Task,
// and the interval between polls is whatever the task returns.
package loop

import (
	"context"
	"fmt"
	"time"
)

// Next tells Start what to do after an iteration.
type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop after interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}

	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// Continue keeps the loop going, sleeping interval before the next iteration.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break stops the loop. Pass nil to stop without error.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task is one iteration. It receives the value returned by the previous
// iteration (or the initial value), and returns the next value together
// with a Next deciding whether the loop carries on.
type Task[T any] func(context.Context, T) (T, Next)

// Start runs task in a loop until it returns Break or ctx is done.
//
// The T returned is the task's last value; it is returned even when the
// loop breaks with an error. When ctx is cancelled mid-sleep, Start
// returns ctx.Err() together with the last value.
func Start[T any](ctx context.Context, init T, task Task[T]) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		v, n := task(ctx, value)

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutdown first, timer later.
			if !timer.Stop() {
				<-timer.C // drain. see: time.Timer.Stop's document
			}
			return value, ctx.Err()

		case <-timer.C:
		}
	}
}
