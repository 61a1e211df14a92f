package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

// Driver is a string key/value store with per-entry expiry. It backs the
// background job lease and the job run tracker, so every implementation must be
// shared between all running instances that should coordinate.
type Driver interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, duration time.Duration) error
	// Claim stores value only when key is absent and reports whether it did.
	Claim(ctx context.Context, key string, value string, duration time.Duration) (bool, error)
	// Extend restarts the expiry of key in one step, only while it still holds
	// value, and reports whether it did.
	Extend(ctx context.Context, key string, value string, duration time.Duration) (bool, error)
}
