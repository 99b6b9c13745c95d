package middleware

import (
	"fmt"
	"math"

	"github.com/labstack/echo/v4"

	"marketsync/internal/infrastructure/ratelimit"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/response"
)

// RateLimit throttles writes per authenticated uid, falling back to the
// client address for anonymous requests.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := UID(c)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				logger.Warn("RATE LIMIT: blocked %s %s for %s (retry in %ds)", c.Request().Method, c.Path(), key, retryAfter)
				c.Response().Header().Set("Retry-After", fmt.Sprint(retryAfter))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}
			return next(c)
		}
	}
}
