// Package resilience implements the per-venue circuit breaker the
// teacher's specs/001-liquidity-repositioning/contracts/strategy_api.go
// declares but leaves as a stub ("Implementation to be added in tasks
// phase"): a sliding error window that halts calls to a venue once too
// many errors land within it, or immediately on a critical error.
package resilience

import (
	"sync"
	"time"
)

// CircuitBreaker tracks recent errors for one venue/operation and
// reports whether further calls should be halted, per Constitutional
// Principle 5's fail-safe error handling.
type CircuitBreaker struct {
	mu sync.Mutex

	window    time.Duration
	threshold int
	nowFn     func() time.Time

	errors   []time.Time
	critical bool
}

// New constructs a CircuitBreaker with the given error window and
// threshold (errors allowed within window before Tripped reports true).
func New(window time.Duration, threshold int) *CircuitBreaker {
	return &CircuitBreaker{
		window:    window,
		threshold: threshold,
		nowFn:     time.Now,
	}
}

// RecordError records an error occurrence and reports whether the
// breaker should now halt calls. critical=true trips the breaker
// immediately regardless of the threshold, mirroring a fatal/unrecoverable
// error that no amount of retrying below threshold should paper over.
func (cb *CircuitBreaker) RecordError(critical bool) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFn()
	if critical {
		cb.critical = true
	}
	cb.errors = append(cb.errors, now)
	cb.errors = pruneBefore(cb.errors, now.Add(-cb.window))

	return cb.tripped()
}

// Tripped reports the breaker's current halt state without recording a
// new error, pruning expired entries from the window first.
func (cb *CircuitBreaker) Tripped() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.errors = pruneBefore(cb.errors, cb.nowFn().Add(-cb.window))
	return cb.tripped()
}

func (cb *CircuitBreaker) tripped() bool {
	return cb.critical || len(cb.errors) >= cb.threshold
}

// Reset clears the breaker's error history and critical flag.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.errors = nil
	cb.critical = false
}

// ErrorRate returns the current error rate in errors per hour, 0 if the
// window has no recorded errors.
func (cb *CircuitBreaker) ErrorRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.errors = pruneBefore(cb.errors, cb.nowFn().Add(-cb.window))
	if len(cb.errors) == 0 {
		return 0
	}
	return float64(len(cb.errors)) / cb.window.Hours()
}

func pruneBefore(errs []time.Time, cutoff time.Time) []time.Time {
	out := errs[:0]
	for _, t := range errs {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}
