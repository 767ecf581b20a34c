package ratelimit

import (
	"context"
	"fmt"
	"time"

	red "pcred/internal/infra/redis"
)

// RedisWindow counts requests per key in Redis with INCR + EXPIRE, giving a
// fixed window shared across instances. Coarser than the sliding window but
// survives restarts and covers multi-instance deployments.
type RedisWindow struct {
	client red.RedisClient
	limit  int
	window time.Duration
}

var _ Limiter = (*RedisWindow)(nil)

func NewRedisWindow(client red.RedisClient, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{client: client, limit: limit, window: window}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, rateKey(key))
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, rateKey(key), l.window); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}

func rateKey(key string) string {
	return fmt.Sprintf("rate_limit:%s", key)
}
