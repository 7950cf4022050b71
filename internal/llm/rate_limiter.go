package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
)

// RateLimiter enforces a daily request quota per provider in Redis, so the
// limit holds across every server and CLI process sharing the instance.
type RateLimiter struct {
	redis      *redis.Client
	dailyLimit int64
	now        func() time.Time
}

// quotaScript increments the day counter, sets its TTL on first use and
// rolls the increment back when the limit is already reached
var quotaScript = redis.NewScript(`
	local used = redis.call('INCR', KEYS[1])
	if used == 1 then redis.call('EXPIRE', KEYS[1], 90000) end
	if used > tonumber(ARGV[1]) then
		redis.call('DECR', KEYS[1])
		return {-1, used - 1}
	end
	return {0, used}
`)

// NewRateLimiter connects to Redis at redisURL (redis://host:port/db)
func NewRateLimiter(ctx context.Context, redisURL string, dailyLimit int) (*RateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.ConfigErrorf("invalid redis url: %v", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, apperrors.ExternalError(err, fmt.Sprintf("failed to connect to Redis at %s", opts.Addr))
	}

	return NewRateLimiterWithClient(client, dailyLimit), nil
}

// NewRateLimiterWithClient uses an existing Redis client
func NewRateLimiterWithClient(client *redis.Client, dailyLimit int) *RateLimiter {
	return &RateLimiter{
		redis:      client,
		dailyLimit: int64(dailyLimit),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *RateLimiter) dayKey(provider string) string {
	return fmt.Sprintf("internhub:llm:%s:%s", provider, r.now().Format("2006-01-02"))
}

// CheckAndIncrement reserves one request for provider today. It fails with
// a Conflict error once the daily limit is reached. A limit of 0 disables
// the check.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context, provider string) error {
	if r.dailyLimit <= 0 {
		return nil
	}

	result, err := quotaScript.Run(ctx, r.redis, []string{r.dayKey(provider)}, r.dailyLimit).Int64Slice()
	if err != nil {
		return apperrors.ExternalError(err, "rate limiter Redis operation failed")
	}
	if len(result) != 2 {
		return apperrors.InternalErrorf(nil, "invalid rate limiter response %v", result)
	}
	if result[0] < 0 {
		return apperrors.Conflict(nil, fmt.Sprintf("daily llm quota exceeded: %d/%d requests", result[1], r.dailyLimit))
	}
	return nil
}

// Usage returns today's request count for provider
func (r *RateLimiter) Usage(ctx context.Context, provider string) (int64, error) {
	n, err := r.redis.Get(ctx, r.dayKey(provider)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get usage stats: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection
func (r *RateLimiter) Close() error {
	if r.redis != nil {
		return r.redis.Close()
	}
	return nil
}
