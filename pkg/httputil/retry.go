package httputil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Defaults for [Policy.WithDefaults].
const (
	DefaultAttempts  = 5
	DefaultBaseDelay = 3 * time.Second
	DefaultMaxDelay  = 30 * time.Second
	DefaultJitter    = 0.2
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses, truncated bodies)
// with this type so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was wrapped with [Retryable].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// ExhaustedError is returned by [Policy.Do] when every attempt failed with a
// retryable error. It unwraps to the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Notice is called before each backoff sleep. attempt is the 1-based number
// of the attempt that just failed.
type Notice func(attempt int, delay time.Duration, err error)

// Policy is a bounded retry policy with exponential, jittered backoff.
//
// The delay before retry n (1-based) is BaseDelay*2^(n-1), capped at
// MaxDelay, then spread uniformly by ±Jitter of its value.
type Policy struct {
	Attempts  int           // Total attempts including the first (default: 5)
	BaseDelay time.Duration // Delay after the first failure (default: 3s)
	MaxDelay  time.Duration // Upper bound for a single delay (default: 30s)
	Jitter    float64       // Fraction in [0,1] of each delay that is randomized
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
		Jitter:    DefaultJitter,
	}
}

// WithDefaults returns a copy of p with zero values replaced by defaults.
// Jitter is clamped to [0,1]; a zero Jitter stays zero.
func (p Policy) WithDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	p.MaxDelay = max(p.MaxDelay, p.BaseDelay)
	p.Jitter = min(max(p.Jitter, 0), 1)
	return p
}

// Delay returns the backoff to wait after the given failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	d = min(d, p.MaxDelay)
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	return d
}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. Non-retryable errors are returned unchanged;
// running out of attempts yields an [*ExhaustedError]. ctx.Err() is
// returned if the context is cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func() error, notify Notice) error {
	p = p.WithDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == p.Attempts {
			break
		}

		delay := p.Delay(attempt)
		if notify != nil {
			notify(attempt, delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return &ExhaustedError{Attempts: p.Attempts, Err: lastErr}
}
