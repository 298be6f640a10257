package driven

import (
	"context"
	"time"
)

// Cache stores serialisable values with a time to live.
type Cache interface {
	// Get decodes the value under key into dest.
	// Reports false when the key is absent or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
