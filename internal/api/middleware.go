package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	maxAdminFailures = 3
	adminBlockWindow = 5 * time.Minute
)

// AdminAuth checks the X-Admin-Key header. Failed attempts are counted per
// client IP in redis with TTL eviction; crossing the limit blocks the IP for
// the window. Counters survive restarts and are shared across replicas,
// unlike in-process maps.
func AdminAuth(adminKey string, rdb *redis.Client, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		blockKey := "admin:block:" + ip
		failKey := "admin:fail:" + ip
		ctx := c.Request.Context()

		if rdb != nil {
			if blocked, err := rdb.Exists(ctx, blockKey).Result(); err == nil && blocked > 0 {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error": "too many failed attempts, try again later",
				})
				return
			}
		}

		presented := c.GetHeader("X-Admin-Key")
		if adminKey != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(adminKey)) == 1 {
			if rdb != nil {
				rdb.Del(ctx, failKey)
			}
			c.Next()
			return
		}

		if rdb != nil {
			fails, err := rdb.Incr(ctx, failKey).Result()
			if err == nil {
				rdb.Expire(ctx, failKey, adminBlockWindow)
				if fails >= maxAdminFailures {
					rdb.Set(ctx, blockKey, "1", adminBlockWindow)
					logger.Warn("admin client blocked", "ip", ip, "failures", fails)
				}
			} else {
				logger.Warn("admin failure counter unavailable", "ip", ip, "error", err)
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
	}
}

// RequestLogger logs one line per request in slog key-value style.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", fmt.Sprintf("%.1fms", float64(time.Since(start).Microseconds())/1000),
		)
	}
}
