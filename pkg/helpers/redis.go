package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisGetBytes returns the raw value at key; found is false on a miss.
func RedisGetBytes(ctx context.Context, rdb *redis.Client, key string) ([]byte, bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func RedisSetBytes(ctx context.Context, rdb *redis.Client, key string, value []byte, ttl time.Duration) error {
	return rdb.Set(ctx, key, value, ttl).Err()
}

func RedisDel(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
