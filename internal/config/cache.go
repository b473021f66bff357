package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware that
// sits in front of the public search and read endpoints. When Enabled is
// false or no Redis client is available, caching is a no-op. Methods
// lists the HTTP methods worth caching; anything else passes through.
// KeyStrategy determines which parts of the request contribute to the
// cache key, Prefix namespaces the keys, and MaxBodyBytes caps how large
// a response body may be and still be stored; larger responses are
// served uncached.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults keep the public location reads cached for a short window.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// parseMethods turns a comma-separated list such as "GET, HEAD" into a
// lookup set of upper-cased method names.
func parseMethods(s string) map[string]bool {
	methods := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			methods[f] = true
		}
	}
	return methods
}
