package app

import (
	"context"
	"time"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// calculateBackoff doubles the interval for each consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// StartPoller launches a background goroutine that syncs the app at the
// given cadence, backing off while syncs keep failing. It returns
// immediately; the loop stops when ctx is cancelled.
func StartPoller(ctx context.Context, a *App, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := a.Sync(ctx); err != nil && ctx.Err() == nil {
				a.Log.WithError(err).Warn("background sync failed")
			}
			failures := a.State.Snapshot().ConsecutiveFailures
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}
