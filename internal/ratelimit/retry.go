package ratelimit

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxRateLimitAttempts is the number of attempts the 429 retry ladder
// makes before giving up permanently for this cycle (spec.md §4.2).
const MaxRateLimitAttempts = 5

// rateLimitBackOff produces the delay_k = 5 * 3^(k-1) ladder capped at
// 405s described in spec.md §4.2, expressed as a cenkalti/backoff
// BackOff so the retry loop below can drive it uniformly with the
// rest of the pack's backoff-library usage.
type rateLimitBackOff struct {
	attempt int
}

func (b *rateLimitBackOff) Reset() { b.attempt = 0 }

func (b *rateLimitBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= MaxRateLimitAttempts {
		return backoff.Stop
	}
	seconds := 5 * intPow3(b.attempt-1)
	d := time.Duration(seconds) * time.Second
	const cap = 405 * time.Second
	if d > cap {
		return cap
	}
	return d
}

func intPow3(k int) int {
	result := 1
	for i := 0; i < k; i++ {
		result *= 3
	}
	return result
}

// RetryRateLimited retries op up to MaxRateLimitAttempts times using
// the 5*3^(k-1)-capped-at-405s ladder, sleeping between attempts via
// the provided clock (overridable in tests). isRetryable classifies an
// error returned by op: true keeps retrying (typically
// errors.Is(err, domain.ErrRateLimited)), false or nil stops
// immediately. After the final failed attempt the cycle fails
// permanently but is not fatal for the agent (spec.md §4.2).
func RetryRateLimited(ctx context.Context, sleep func(time.Duration), isRetryable func(error) bool, op func(attempt int) error) error {
	b := &rateLimitBackOff{}
	for {
		attempt := b.attempt + 1
		err := op(attempt)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		d := b.NextBackOff()
		if d == backoff.Stop {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sleep(d)
	}
}
