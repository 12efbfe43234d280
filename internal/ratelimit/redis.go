package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisLimiter shares a fixed-window counter between server instances.
type RedisLimiter struct {
	rdb    *redis.Client
	rate   int
	period time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, rate int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, rate: rate, period: period, prefix: "rate:api"}
}

func (l *RedisLimiter) key(client string) string {
	return fmt.Sprintf("%s:%s", l.prefix, client)
}

func (l *RedisLimiter) Allow(ctx context.Context, client string) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, fmt.Errorf("Redis client not available")
	}

	key := l.key(client)

	// SET NX EX opens the window together with its TTL, so the counter can
	// never outlive the window even if the connection drops mid-call.
	var count *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.period)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return count.Val() <= int64(l.rate), nil
}
