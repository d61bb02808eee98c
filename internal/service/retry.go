package service

import "time"

// RetryPolicy bounds the authorize-with-retry loop. Only indeterminate
// bank outcomes are retried.
type RetryPolicy struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	OverallTimeout time.Duration
}

// Backoff returns the wait before the attempt following attempt (1-based).
// Pure function so the schedule is testable without a network dependency.
func (r RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := r.BackoffBase << (attempt - 1)
	if r.BackoffMax > 0 && delay > r.BackoffMax {
		return r.BackoffMax
	}
	return delay
}
