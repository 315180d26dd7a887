// Package httputil provides the retry policy shared by registry clients.
//
// # Retry
//
// [Policy.Do] runs an operation until it succeeds, fails with a
// non-retryable error, or spends its attempt budget:
//
//	p := httputil.DefaultPolicy()
//	err := p.Do(ctx, func() error {
//	    return fetch()
//	}, func(attempt int, delay time.Duration, err error) {
//	    logger.Warn("retrying", "attempt", attempt, "in", delay, "err", err)
//	})
//
// Only errors wrapped with [Retryable] are retried. Registry clients wrap
// network failures, 5xx responses and bodies that fail to decode; anything
// else (4xx, schema violations) is returned on the first attempt.
//
// When the budget is spent, Do returns an [*ExhaustedError] that unwraps to
// the last failure, so callers can still match the underlying cause with
// errors.Is.
//
// # Configuration
//
// Defaults:
//
//   - Attempts: 5
//   - Base delay: 3 seconds, doubling after each failure
//   - Max delay: 30 seconds
//   - Jitter: ±20% ([DefaultPolicy] only; a zero Jitter disables it)
package httputil
