package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(realIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUser limits by the authenticated caller and falls back to the IP
// when the request is anonymous. Mount it after Auth.
func KeyByUser() KeyFunc {
	return func(c *gin.Context) string {
		if p, ok := PrincipalFrom(c); ok {
			return "rl:user:" + p.User.ID
		}
		return "rl:user:anon:ip:" + ipFromCtx(c)
	}
}

// INCR and set the window on first hit, atomically.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// AllowFunc returns true to bypass the limiter.
type AllowFunc func(*gin.Context) bool

// Limiter is a fixed-window Redis rate limiter. A nil client or a disabled
// limiter lets every request through, and Redis errors fail open.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
	logger  *logrus.Logger
}

func NewLimiter(rdb *redis.Client, enabled bool, logger *logrus.Logger) *Limiter {
	return &Limiter{rdb: rdb, enabled: enabled, logger: logger}
}

// Limit allows max requests per window for each key.
func (l *Limiter) Limit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if l == nil || !l.enabled || l.rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := keyFn(c)

		countI, err := incrExpireScript.Run(ctx, l.rdb, []string{key}, window.Milliseconds()).Result()
		if err != nil {
			if l.logger != nil {
				l.logger.WithError(err).WithField("key", key).Warn("rate limit check failed")
			}
			c.Next()
			return
		}
		count := toInt(countI)

		ttl, _ := l.rdb.PTTL(ctx, key).Result()
		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
