package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/bean0205/backend/internal/handler" // handlers implementing the endpoints
)

// RegisterRoutes registers routes that carry no authentication or
// domain middleware. Currently this is only the health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated read API of the
// directory: single-location lookup, filtered search (both the query
// parameter and JSON body variants), proximity search and the rating
// list of a location. The optional middlewares (typically the Redis
// response cache) wrap only these routes, so moderation endpoints are
// never served from cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, r *handler.RatingHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	// Filtered, paginated, sorted search via query parameters.
	g.GET("/locations", p.ListLocations)
	// The same search with the filter as a JSON body. Registered before
	// the :id route matters not to Echo (static segments win), but it
	// keeps the file readable.
	g.POST("/locations/search", p.SearchLocations)
	// Proximity search around an origin point.
	g.POST("/locations/nearby", p.NearbyLocations)
	// Single location by id; ?include_relations=true loads amenities and ratings.
	g.GET("/locations/:id", p.GetLocation)
	// Paginated rating list of a location, newest first.
	g.GET("/locations/:id/ratings", r.ListRatings)
}
