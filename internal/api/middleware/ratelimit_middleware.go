package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/quietroom/quietroom-api/internal/ratelimit"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit guards write endpoints with the fixed-window limiter, keyed by the
// client address.
func (m *RateLimitMiddleware) Limit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, remaining := m.limiter.Allow(clientKey(c))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many submissions. Please wait a moment.",
			})
		}
		return c.Next()
	}
}

func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// first hop is the client
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
