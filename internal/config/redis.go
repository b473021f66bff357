package config

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAddr resolves the server address. REDIS_ADDR wins when set;
// otherwise REDIS_HOST/REDIS_PORT are joined, falling back to the
// conventional local default.
func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
	if host != "" && port != "" {
		return net.JoinHostPort(host, port)
	}
	return "localhost:6379"
}

// NewRedisClient builds the client backing the response cache and the
// rate limiter. REDIS_PASSWORD, REDIS_DB and REDIS_TLS are optional.
// When the server cannot be reached within a short startup timeout the
// function returns nil and both features stay off; a missing Redis must
// never keep the directory from serving.
func NewRedisClient() *redis.Client {
	opts := &redis.Options{
		Addr:     redisAddr(),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
