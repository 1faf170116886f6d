package upstream

import (
	"context"
	"time"
)

// retrySchedule is the fixed backoff between attempts: up to 4 tries total,
// waits of 250ms, 1s, then 4s. Every error fn returns is retried, including
// the 4xx replies getJSON reports as permanent.
var retrySchedule = []time.Duration{250 * time.Millisecond, time.Second, 4 * time.Second}

// withRetry runs fn up to len(retrySchedule)+1 times, waiting the schedule's
// delay between attempts. Only meant to wrap the HTTP round trip itself, not
// higher-level ingest logic.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= len(retrySchedule); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retrySchedule[attempt-1]):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
