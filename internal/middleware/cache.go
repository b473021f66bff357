package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bean0205/backend/internal/config"
)

// captureWriter tees the response into a buffer while still writing to
// the client, so a successful response can be stored after the handler
// ran. The buffer stops growing at limit; size keeps counting so the
// middleware can tell a truncated capture from a complete one.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.capture(b)
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) capture(b []byte) {
	if cw.limit > 0 {
		if room := cw.limit - cw.size; room < int64(len(b)) {
			if room > 0 {
				cw.buf.Write(b[:room])
			}
			return
		}
	}
	cw.buf.Write(b)
}

// cacheKey derives a stable Redis key for the request per the configured
// strategy. The variable part is hashed so a long filter query string
// never produces an oversized key.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var scope string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		scope = "route:" + c.Path()
	case "method_route":
		scope = "method:" + r.Method + ":route:" + c.Path()
	case "method_route_query":
		scope = "method:" + r.Method + ":route:" + c.Path() + ":q:" + r.URL.RawQuery
	default: // route_query
		scope = "route:" + c.Path() + ":q:" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(scope))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// encodePayload packs a cached response as
// [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:], uint32(len(hdrJSON)))
	out = append(out, hdrJSON...)
	return append(out, body...), nil
}

// decodePayload is the inverse of encodePayload. ok is false for
// anything that does not parse; a bad cache entry is treated as a miss.
func decodePayload(raw []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(raw) < 8 {
		return 0, nil, nil, false
	}
	hlen := int(binary.BigEndian.Uint32(raw[4:8]))
	if hlen < 0 || hlen > len(raw)-8 {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(raw[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return int(binary.BigEndian.Uint32(raw[:4])), header, raw[8+hlen:], true
}

// NewRedisCache caches whole responses (status, headers and body) in
// Redis so repeated directory reads skip MySQL entirely. Only the
// configured methods are considered and only 200 responses are stored.
// Replayed responses carry X-Cache: HIT, fresh ones X-Cache: MISS. With
// caching disabled or no Redis client it degrades to a no-op.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	bodyCap := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			key := cacheKey(cfg, c)
			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(raw); ok {
					return replay(c, status, hdr, body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: bodyCap}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK {
				return nil
			}
			if bodyCap > 0 && cw.size > bodyCap {
				// An oversized body is served uncached; storing the
				// truncated capture would replay a corrupt response.
				return nil
			}

			if payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes()); err == nil {
				// The request context may already be done; storing the
				// entry should not be tied to it.
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// replay writes a stored response back to the client as-is, except for
// Content-Length, which Echo recomputes on write.
func replay(c echo.Context, status int, hdr http.Header, body []byte) error {
	for k, vals := range hdr {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	c.Response().Header().Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return nil
}
