package agenda

import (
	"context"
	"time"
)

func EverySecond(
	ctx context.Context,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	return Interval(ctx, time.Second, action, errorHandler)
}

// Interval runs action right away and then on every multiple of d on the wall
// clock until ctx is done. An error returned by errorHandler stops the loop.
func Interval(
	ctx context.Context,
	d time.Duration,
	action func(ctx context.Context) error,
	errorHandler func(ctx context.Context, err error) error,
) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := action(ctx); err != nil {
			if err := errorHandler(ctx, err); err != nil {
				return err
			}
		}

		// Wait for the next boundary of d
		now := time.Now()
		timer.Reset(now.Add(d).Truncate(d).Sub(now))
	}
}
