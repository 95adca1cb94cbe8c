// internal/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the counter and reads its TTL in one atomic step,
// arming the expiry when the key has none. A counter can otherwise be left
// without an expiry and throttle its identity long past the window.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("TTL", KEYS[1])
if ttl < 0 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter backed by a shared Redis counter,
// for deployments running more than one service instance. Redis
// unavailability fails open.
type RedisLimiter struct {
	client *redis.Client
	name   string
	max    int
	logger *slog.Logger
}

// NewRedisLimiter creates a shared limiter for the named endpoint allowing
// max requests per identity per 60-second window.
func NewRedisLimiter(client *redis.Client, name string, max int, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, name: name, max: max, logger: logger}
}

func (l *RedisLimiter) key(identity string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.name, identity)
}

// Check records one request for identity against the shared counter.
func (l *RedisLimiter) Check(ctx context.Context, identity string) (Result, error) {
	reply, err := windowScript.Run(ctx, l.client, []string{l.key(identity)}, int(window.Seconds())).Slice()
	if err != nil {
		l.logger.Warn("Rate limit counter unavailable, allowing request", "error", err)
		return Result{Allowed: true}, nil
	}
	if len(reply) != 2 {
		l.logger.Warn("Unexpected rate limit counter reply, allowing request", "reply", reply)
		return Result{Allowed: true}, nil
	}

	count, _ := reply[0].(int64)
	ttl, _ := reply[1].(int64)

	if count > int64(l.max) {
		return Result{Allowed: false, RetryAfter: int(ttl)}, nil
	}
	return Result{Allowed: true}, nil
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
