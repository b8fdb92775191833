// Package dbretry applies the store retry policy to single-document calls.
//
// Transient failures (network errors, server timeouts, errors the server
// labels retryable) are retried with capped exponential backoff a bounded
// number of times. When the budget is spent, or the caller's deadline
// passes, the failure is returned wrapped in ErrUnavailable.
// Any other error is returned as-is on the first attempt.
package dbretry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnavailable marks a store call that failed for transient reasons.
var ErrUnavailable = errors.New("store unavailable")

// Policy bounds the retry loop.
type Policy struct {
	MaxRetries uint64        // retries after the first attempt
	Base       time.Duration // first backoff interval
	Cap        time.Duration // upper bound on any single interval
}

// DefaultPolicy is used when Configure is not called.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	Base:       100 * time.Millisecond,
	Cap:        2 * time.Second,
}

var (
	mu      sync.RWMutex
	current = DefaultPolicy
)

// Configure replaces the policy. Zero durations keep the current values.
func Configure(p Policy) {
	mu.Lock()
	defer mu.Unlock()
	current.MaxRetries = p.MaxRetries
	if p.Base > 0 {
		current.Base = p.Base
	}
	if p.Cap > 0 {
		current.Cap = p.Cap
	}
}

// Current returns the active policy.
func Current() Policy {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Reset restores DefaultPolicy. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = DefaultPolicy
}

// IsTransient reports whether err is worth retrying.
// Cancellation and the caller's own deadline are never retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("RetryableWriteError") || se.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// Do runs fn under the current policy.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p := Current()
	b := retry.NewExponential(p.Base)
	b = retry.WithCappedDuration(p.Cap, b)
	b = retry.WithMaxRetries(p.MaxRetries, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
