package cache

import (
	"context"

	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

// Invalidator is the side channel services call after a successful commit.
// Implementations must be best-effort: failures are logged by the caller and
// never affect the committed transaction.
type Invalidator interface {
	Invalidate(ctx context.Context, keyPattern string) error
}

// RedisInvalidator deletes matching cache keys from Redis.
type RedisInvalidator struct {
	client *redis.Client
}

// NewRedisInvalidator wraps the shared redis client.
func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, keyPattern string) error {
	if r == nil || r.client == nil {
		return nil
	}
	// Patterns are domain-scoped ("sweets:*"); namespacing happens here so
	// services never see raw redis keys.
	return r.client.DeleteByPattern(ctx, r.client.CacheKey(keyPattern))
}

// Noop satisfies Invalidator for workers and tests that carry no cache.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) error { return nil }

// InvalidateAfterCommit runs the invalidation and logs failures without
// propagating them.
func InvalidateAfterCommit(ctx context.Context, inv Invalidator, logg *logger.Logger, patterns ...string) {
	if inv == nil {
		return
	}
	for _, pattern := range patterns {
		if err := inv.Invalidate(ctx, pattern); err != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "key_pattern", pattern), "cache invalidation failed")
		}
	}
}
