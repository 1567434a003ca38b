package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds retries around a transient external call. Call
// sites receive their policy explicitly; there is no process default.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the pause after the first failure; attempt n waits
	// n times this long.
	BaseDelay time.Duration
}

// DefaultRetry is three attempts with a one second base delay.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// Do runs op until it succeeds, attempts are exhausted, or ctx is done.
// The returned error wraps the last failure.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = op(ctx)
		if last == nil {
			return nil
		}
		log.Warn().Err(last).Str("op", name).Int("attempt", attempt).Int("max", attempts).Msg("transient call failed")
		if attempt == attempts {
			break
		}
		delay := p.BaseDelay * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, last)
}
