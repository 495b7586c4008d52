package serial

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const counterKey = "vanshavali:serno"

// Redis allocates serial numbers through INCR on a shared key, giving all
// server instances one atomic counter.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client. Call Ensure with the current max serNo
// before first use so the counter starts above existing members.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr serial counter: %w", err)
	}
	return n, nil
}

// ensureScript raises the counter to floor only when it is lower, atomically.
var ensureScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
  redis.call('SET', KEYS[1], floor)
end
return redis.call('GET', KEYS[1])
`)

func (r *Redis) Ensure(ctx context.Context, floor int64) error {
	if err := ensureScript.Run(ctx, r.client, []string{counterKey}, floor).Err(); err != nil {
		return fmt.Errorf("ensure serial counter floor: %w", err)
	}
	return nil
}
