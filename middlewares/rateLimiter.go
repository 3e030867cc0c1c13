package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamthihongngoc/CDS-trocapxahoi-sub001/config"
)

// RateLimiter is a fixed-window counter backed by redis. When redis is not
// configured the middleware is a pass-through.
type RateLimiter struct {
	limit  int64
	window time.Duration
}

func NewRateLimiter(limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())
		count, err := config.IncrRedisCounter(c.Request.Context(), key, rl.window)
		if err != nil {
			// Counting failures must not take the portal down.
			c.Next()
			return
		}
		if count > rl.limit && rl.limit > 0 {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
