// Package retry provides a fixed-delay retry policy for flaky remote calls.
// There is deliberately no backoff growth; the generators retried here rate
// limit per request, not per window.
package retry

import (
	"context"
	"time"
)

// Policy bounds the retries of one operation. Zero or negative Attempts means
// a single attempt. Tests use a zero Delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs op until it succeeds, the attempts are exhausted, or the context is
// cancelled. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if waitErr := sleep(ctx, p.Delay); waitErr != nil {
			return waitErr
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
