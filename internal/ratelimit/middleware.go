package ratelimit

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware gates a route with the limiter, keyed by client address and
// route path. A limiter outage fails open: admission control is a shield,
// not a dependency of the booking path.
func Middleware(l *Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := Key(c.ClientIP(), c.FullPath())

		res, err := l.Check(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Printf("rate limit check %s: %v", key, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprint(res.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprint(res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprint(res.ResetAt.Unix()))

		if !res.Allowed {
			c.Header("Retry-After", fmt.Sprint(int(res.RetryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
