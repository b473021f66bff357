package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bean0205/backend/internal/config"
)

// tokenBucketScript refills and takes in one atomic step so concurrent
// requests on the same key cannot double-spend. It returns a triple of
// {allowed, tokens left, ms until the next refill}.
const tokenBucketScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local bucket = redis.call('HMGET', key, 'tokens', 'refill_ms')
local tokens = tonumber(bucket[1])
local stamp = tonumber(bucket[2])

if tokens == nil or stamp == nil then
	tokens = capacity
	stamp = now
end

if interval > 0 and refill > 0 then
	local steps = math.floor(math.max(0, now - stamp) / interval)
	if steps > 0 then
		tokens = math.min(capacity, tokens + steps * refill)
		stamp = stamp + steps * interval
	end
end

local allowed = 0
local retry = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry = math.max(0, interval - (now - stamp))
end

redis.call('HSET', key, 'tokens', tokens, 'refill_ms', stamp)
redis.call('EXPIRE', key, ttl)

return { allowed, tokens, retry }
`

var bucketScript = redis.NewScript(tokenBucketScript)

// bucketResult unpacks the script's reply. ok is false when the reply
// does not have the expected three-element shape.
func bucketResult(v interface{}) (allowed bool, remaining, retryMs int64, ok bool) {
	arr, isArr := v.([]interface{})
	if !isArr || len(arr) != 3 {
		return false, 0, 0, false
	}
	return asInt64(arr[0]) == 1, asInt64(arr[1]), asInt64(arr[2]), true
}

// NewTokenBucket rate-limits requests with a token bucket kept in Redis,
// keyed per the configured strategy (per IP, per gateway user, per route
// or combinations). When Redis is unreachable or disabled the limiter
// fails open; a directory that serves stale reads beats one that serves
// nothing.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("rate limiter: script failed for %s: %v", key, err)
				}
				return next(c)
			}

			allowed, remaining, retryMs, ok := bucketResult(res)
			if !ok {
				if cfg.Debug {
					c.Logger().Warnf("rate limiter: unexpected reply for %s: %#v", key, res)
				}
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("rate limiter: blocked %s, retry in %dms", key, retryMs)
				}
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}

			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// asInt64 copes with the mix of types redis script results come back as.
func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// rateKey builds the bucket key from the configured strategy. The user
// segment comes from the gateway identity when present, "guest"
// otherwise, so anonymous readers share one bucket per IP.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	var segs []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		segs = []string{"ip", ip}
	case "user":
		segs = []string{"user", uid}
	case "route":
		segs = []string{"route", route}
	case "ip_user":
		segs = []string{"ip", ip, "user", uid}
	case "ip_route":
		segs = []string{"ip", ip, "route", route}
	case "user_route":
		segs = []string{"user", uid, "route", route}
	default: // ip_user_route
		segs = []string{"ip", ip, "user", uid, "route", route}
	}
	return strings.Join(append([]string{cfg.Prefix}, segs...), ":")
}
