package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// fixedWindow sets the expiry only when the window opens, so later hits
// inside the window never push the reset back.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter counts requests per key in fixed windows shared by every
// gateway instance.
type RedisLimiter struct {
	rdb         *redis.Client
	window      time.Duration
	maxRequests int
}

func NewRedisLimiter(addr string, maxRequests int, window time.Duration) (*RedisLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &RedisLimiter{rdb: rdb, window: window, maxRequests: maxRequests}, nil
}

// Allow fails open: a Redis error never blocks a user.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := fixedWindow.Run(ctx, l.rdb, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		slog.Warn("Rate limit check failed", "key", key, "error", err)
		return true
	}

	return count <= int64(l.maxRequests)
}

func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
