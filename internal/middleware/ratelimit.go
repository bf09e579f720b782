package middleware

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter caps login attempts per client IP and identifier inside a
// fixed window. A nil client disables the limiter.
func LoginLimiter(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	if rdb == nil || limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		key := loginRateKey(c)
		ctx := c.UserContext()

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			return nil
		})
		if err != nil {
			log.Printf("[RateLimit] redis error for key=%s: %v", key, err)
			return c.Next()
		}

		count := incr.Val()
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			ttl, err := rdb.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Round(time.Second)/time.Second)))
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		}

		return c.Next()
	}
}

func loginRateKey(c *fiber.Ctx) string {
	var body struct {
		Phone string `json:"phone" form:"phone"`
		Email string `json:"email" form:"email"`
	}
	_ = c.BodyParser(&body)

	identifier := strings.TrimSpace(body.Phone)
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(body.Email))
	}
	if identifier == "" {
		identifier = "anon"
	}

	return strings.Join([]string{"ratelimit", "login", c.IP(), identifier}, ":")
}
