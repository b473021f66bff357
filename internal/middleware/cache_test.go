package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bean0205/backend/internal/config"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{
		"Content-Type": []string{"application/json; charset=UTF-8"},
		"X-Cache":      []string{"MISS"},
	}
	body := []byte(`{"items":[],"total_items":0}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json; charset=UTF-8", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{
		nil,
		[]byte("short"),
		// Header length pointing past the end of the payload.
		{0, 0, 0, 200, 255, 255, 255, 255},
		// Valid lengths but header bytes that are not JSON.
		{0, 0, 0, 200, 0, 0, 0, 2, 'x', 'y'},
	} {
		_, _, _, ok := decodePayload(bs)
		assert.False(t, ok, "payload % x must not decode", bs)
	}
}

func cacheContext(method, target, route string) echo.Context {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath(route)
	return c
}

func TestCacheKeyStrategies(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	page1 := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations?page=1", "/v1/locations"))
	page1Again := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations?page=1", "/v1/locations"))
	page2 := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations?page=2", "/v1/locations"))

	assert.True(t, strings.HasPrefix(page1, "cache:"), "keys are namespaced by the prefix")
	assert.Equal(t, page1, page1Again, "the key must be deterministic")
	assert.NotEqual(t, page1, page2, "route_query keys must reflect the query string")

	cfg.KeyStrategy = "route"
	routeOnly1 := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations?page=1", "/v1/locations"))
	routeOnly2 := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations?page=2", "/v1/locations"))
	assert.Equal(t, routeOnly1, routeOnly2, "route keys ignore the query string")

	cfg.KeyStrategy = "method_route"
	byGet := cacheKey(cfg, cacheContext(http.MethodGet, "/v1/locations", "/v1/locations"))
	byHead := cacheKey(cfg, cacheContext(http.MethodHead, "/v1/locations", "/v1/locations"))
	assert.NotEqual(t, byGet, byHead, "method_route keys distinguish methods")
}

func TestCaptureWriterStopsBufferingAtLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 5}

	n, err := cw.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n, "the client still receives every byte")
	assert.Equal(t, "hello", cw.buf.String(), "the buffer caps at the limit")
	assert.Equal(t, int64(11), cw.size, "size tracks the real body length")

	_, err = cw.Write([]byte("!!!"))
	require.NoError(t, err)
	assert.Equal(t, "hello", cw.buf.String())
	assert.Equal(t, "hello world!!!", rec.Body.String())
}

func TestCaptureWriterUnlimited(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("def"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", cw.buf.String())
}
