package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tilinna/clock"
)

// NewExponentialBackOff returns an exponential backoff giving up after maxElapsedTime or maxRetries retries,
// whichever comes first. A maxRetries of 0 only limits the elapsed time.
func NewExponentialBackOff(initialInterval, maxElapsedTime time.Duration, maxRetries uint64) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxElapsedTime = maxElapsedTime
	bo.Reset()
	if maxRetries == 0 {
		return bo
	}
	return backoff.WithMaxRetries(bo, maxRetries)
}

// Retry calls op until it succeeds, bo gives up or ctx is done. onRetry, if not nil, is called with the error and
// the delay before each new attempt. The last error of op is returned when bo gives up.
func Retry(ctx context.Context, bo backoff.BackOff, op func() error, onRetry func(error, time.Duration)) error {
	bo.Reset()
	for {
		err := op()
		if err == nil {
			return nil
		}

		next := bo.NextBackOff()
		if next == backoff.Stop {
			return err
		}
		if onRetry != nil {
			onRetry(err, next)
		}

		timer := clock.NewTimer(ctx, next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
