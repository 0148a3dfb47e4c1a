// Package ratelimit admits or denies requests before they reach the ledger.
package ratelimit

import (
	"context"
	"time"
)

// Limiter reports whether one more request is admitted under the key.
// Implementations are shared between processes, so the decision must be
// made in the backing store, not in process memory.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error)
}
