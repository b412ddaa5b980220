// Package cache holds the Redis-backed avatar cache.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

const DefaultAvatarTTL = 24 * time.Hour

// AvatarCache stores normalized avatar PNGs under avatar:<user id>.
type AvatarCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvatarCache(rdb *redis.Client, ttl time.Duration) *AvatarCache {
	if ttl <= 0 {
		ttl = DefaultAvatarTTL
	}
	return &AvatarCache{rdb: rdb, ttl: ttl}
}

func key(userID string) string { return "avatar:" + userID }

func (c *AvatarCache) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	return helpers.RedisGetBytes(ctx, c.rdb, key(userID))
}

func (c *AvatarCache) Set(ctx context.Context, userID string, png []byte) error {
	return helpers.RedisSetBytes(ctx, c.rdb, key(userID), png, c.ttl)
}

func (c *AvatarCache) Delete(ctx context.Context, userID string) error {
	return helpers.RedisDel(ctx, c.rdb, key(userID))
}
