// Package batch splits id sets into store-batch-sized chunks.
//
// The document store caps the number of operations in one batched write.
// Sweeps call Chunks to get slices no larger than the configured cap and
// apply them one after another, never concurrently.
package batch

import "sync"

// DefaultMaxOps is the per-batch operation cap used when Configure is not called.
const DefaultMaxOps = 500

var (
	mu     sync.RWMutex
	maxOps = DefaultMaxOps
)

// MaxOps returns the current per-batch operation cap.
func MaxOps() int {
	mu.RLock()
	defer mu.RUnlock()
	return maxOps
}

// Configure sets the per-batch operation cap. Values < 1 are ignored.
func Configure(n int) {
	if n < 1 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	maxOps = n
}

// Reset restores the default cap. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	maxOps = DefaultMaxOps
}

// Chunks splits items into consecutive slices of at most size elements.
// A size < 1 falls back to MaxOps(). The returned slices share the
// backing array of items.
func Chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = MaxOps()
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end:end])
	}
	return out
}
