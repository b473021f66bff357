package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files during development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/bean0205/backend/internal/config"     // Internal config loader
	"github.com/bean0205/backend/internal/database"   // MySQL connection pool
	"github.com/bean0205/backend/internal/handler"    // HTTP handlers
	"github.com/bean0205/backend/internal/middleware" // Cache and rate-limit middleware
	"github.com/bean0205/backend/internal/queue"      // Location event consumer
	"github.com/bean0205/backend/internal/repository" // Data access layer
	"github.com/bean0205/backend/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // Best effort; deployments provide real env vars

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err) // No point starting without storage
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; cache and limiter degrade to no-ops

	locationRepo := repository.NewLocationRepo(db)   // Location rows and amenities
	ratingRepo := repository.NewRatingRepo(db)       // Rating rows
	referenceRepo := repository.NewReferenceRepo(db) // Hierarchy and category lookups

	admin := handler.NewLocationHandler(locationRepo, referenceRepo) // Moderation endpoints
	public := handler.NewPublicHandler(locationRepo)                 // Read and search endpoints
	ratings := handler.NewRatingHandler(ratingRepo)                  // Rating endpoints

	e := echo.New()
	e.Use(echomw.Logger())  // Request logging
	e.Use(echomw.Recover()) // Panic recovery
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)) // Global rate limit

	router.RegisterRoutes(e) // Health check
	// Public reads go through the Redis response cache; writes never do.
	router.RegisterPublic(e, public, ratings, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterAdmin(e, admin)
	router.RegisterRatings(e, ratings)

	// Consume lifecycle events into the audit log. The consumer owns its
	// reconnect loop, so a broker outage never affects request serving.
	go func() { _ = queue.StartLocationConsumer() }()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
