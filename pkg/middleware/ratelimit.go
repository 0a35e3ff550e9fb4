package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/ratelimit"
	"github.com/wyfcoding/distributorhub/pkg/response"
)

// RateLimitMiddleware limits requests per client IP within scope.
// A nil limiter or a limiter error lets the request through.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, scope string, limit ratelimit.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), ratelimit.Key(scope, c.ClientIP()), limit)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			logger.Info(c.Request.Context(), "request throttled", "scope", scope, "client_ip", c.ClientIP())
			c.Header("Retry-After", strconv.FormatInt(res.RetryAfterSeconds(), 10))
			response.Abort(c, apperr.New(apperr.CodeRateLimited, "too many requests, retry later"), false)
			return
		}

		c.Next()
	}
}
