package mongo

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// ShouldAttempt reports whether another connect attempt is allowed after
// attempt attempts have been made. A limit of 0 never gives up.
func ShouldAttempt(attempt, maxAttempts int) bool {
	return maxAttempts == 0 || attempt < maxAttempts
}

// RetryPolicy is the attempt-accounting policy of a connect sequence.
// The delay between attempts is constant.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// PolicyFor extracts the retry policy from cfg.
func PolicyFor(cfg Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxConnectAttempts,
		Delay:       cfg.ConnectRetryDelay,
	}
}

// NextDelay returns the wait before the next attempt.
func (p RetryPolicy) NextDelay() time.Duration {
	if p.Delay < 0 {
		return 0
	}
	return p.Delay
}

// Exhausted reports whether a sequence that has made attempt attempts must give up.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return !ShouldAttempt(attempt, p.MaxAttempts)
}

// backoff adapts the policy to retry.Backoff. attempts reports how many
// attempts the running sequence has made so far; once the policy is
// exhausted the backoff stops instead of scheduling another delay.
func (p RetryPolicy) backoff(attempts func() int) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if p.Exhausted(attempts()) {
			return 0, true
		}
		return p.NextDelay(), false
	})
}
