package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	apiMaxRequests = 100 // per minute per IP
	cartMaxWrites  = 20  // per minute per user
	counterWindow  = 1 * time.Minute
)

// APIRateLimit caps requests per client IP over a sliding minute. Counters
// live in Redis so the limit holds across replicas.
func APIRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "api_requests:" + c.ClientIP()

		count, ok := countRequest(ctx, rdb, key)
		if !ok {
			// Redis down: fail open rather than block traffic.
			c.Next()
			return
		}
		if count > apiMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests, retry in a minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", apiMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", apiMaxRequests-count))

		c.Next()
	}
}

// countRequest bumps the window counter and returns the count after the
// increment. INCR decides admission, so concurrent requests each observe a
// distinct count and the limit holds under load. The false return means
// Redis was unreachable.
func countRequest(ctx context.Context, rdb *redis.Client, key string) (int64, bool) {
	pipe := rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, counterWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false
	}
	return incr.Val(), true
}

// CartRateLimit slows down cart write spam per user.
func CartRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "cart_writes:" + userID

		count, ok := countRequest(ctx, rdb, key)
		if ok && count > cartMaxWrites {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many cart updates, slow down",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
