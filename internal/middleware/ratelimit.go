package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/versecraft/api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Next() // Skip rate limiting if no user (auth middleware should catch this)
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := context.Background()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request
			return c.Next()
		}

		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// SongsLimit limits workflow starts; each one burns studio generations
// and review quota, so the ceiling is low.
func (rl *RateLimiter) SongsLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("songs", maxPerHour, time.Hour)
}

// StructuresLimit limits structure generation (one LLM call per miss)
func (rl *RateLimiter) StructuresLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("structures", maxPerMin, time.Minute)
}

// DebugLimit limits the isolated driver/review debug endpoints
func (rl *RateLimiter) DebugLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("debug", maxPerMin, time.Minute)
}
