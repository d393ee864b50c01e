package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unigate/unigate/core"
)

// incrScript bumps the window counter, arming the expiry on first hit so a
// crashed client cannot leave an immortal key behind.
var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type redisLimiter struct {
	client   *redis.Client
	requests int
	interval time.Duration
}

var _ Limiter = (*redisLimiter)(nil)

// NewRedisLimiter shares the window across processes.
func NewRedisLimiter(conf *core.Config) *redisLimiter {
	return &redisLimiter{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		}),
		requests: conf.RateLimit.Requests,
		interval: conf.RateLimit.Window,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := incrScript.Run(ctx, l.client, []string{"ratelimit:" + key}, l.interval.Milliseconds()).Int64()
	if err != nil {
		return false, core.UnavailableError("rate limiter unavailable", err)
	}
	return count <= int64(l.requests), nil
}
