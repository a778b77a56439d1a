package api

import (
	"net/http"
	"strconv"
	"time"

	"order-import-service/internal/ratelimit"
	"order-import-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// rateLimitMiddleware takes one token from bucket per request and rejects
// with 429 when it is empty. Limiter errors let the request through.
func rateLimitMiddleware(limiter ratelimit.Limiter, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), bucket)
		if err != nil {
			util.GetLogger().Warn("Rate limiter unavailable, allowing request",
				zap.String("bucket", bucket),
				zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			util.RateLimitRejectionsTotal.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": msgRateLimited,
			})
			return
		}

		c.Next()
	}
}
