package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"echosocial/internal/infrastructure/ratelimit"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
	"echosocial/pkg/response"
)

const ActionHTTPRequest = "http_request"

type RateLimitMiddleware struct {
	limiter *ratelimit.RateLimiter
}

func NewRateLimitMiddleware(limiter *ratelimit.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
	}
}

// Limit throttles requests per client IP and sets Retry-After when the
// bucket is empty.
func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()

		allowed, wait := m.limiter.Allow(ip, ActionHTTPRequest)
		if !allowed {
			logger.Warn("Rate limit: blocked request from %s (retry in %v)", ip, wait)
			if wait > 0 {
				seconds := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			}
			return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
		}

		return next(c)
	}
}
