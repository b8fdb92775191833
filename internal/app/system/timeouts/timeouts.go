// Package timeouts provides centralized timeout values for store operations.
//
// These timeouts are used with context.WithTimeout around calls into the
// membership engine from HTTP handlers and the operator CLI.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Read: single-household lookups
//   - Write: join, leave, add member, invites, rename (a handful of documents)
//   - Sweep: create, retype, delete, repair (chunked writes across collections)
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing  = 2 * time.Second
	DefaultRead  = 5 * time.Second
	DefaultWrite = 10 * time.Second
	DefaultSweep = 60 * time.Second
)

var mu sync.RWMutex

var (
	ping  = DefaultPing
	read  = DefaultRead
	write = DefaultWrite
	sweep = DefaultSweep
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Read returns the timeout for single lookups.
func Read() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return read
}

// Write returns the timeout for operations touching a few documents.
func Write() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return write
}

// Sweep returns the timeout for operations that run batched sweeps.
func Sweep() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return sweep
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping  time.Duration
	Read  time.Duration
	Write time.Duration
	Sweep time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored.
// Call during startup before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Read > 0 {
		read = cfg.Read
	}
	if cfg.Write > 0 {
		write = cfg.Write
	}
	if cfg.Sweep > 0 {
		sweep = cfg.Sweep
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	read = DefaultRead
	write = DefaultWrite
	sweep = DefaultSweep
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Read: read, Write: write, Sweep: sweep}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context ended because the deadline passed.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Sweep(), h.Log, "delete household")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
