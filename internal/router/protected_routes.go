package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/handler"
	"github.com/bean0205/backend/internal/middleware"
)

// RegisterAdmin registers the moderation endpoints under /v1. Identity
// comes from the gateway headers; creation and update are open to both
// ADMIN and MODERATOR, deletion is destructive and reserved for ADMIN.
func RegisterAdmin(e *echo.Echo, l *handler.LocationHandler) {
	g := e.Group(
		"/v1",
		middleware.GatewayIdentity(),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleModerator),
	)
	g.POST("/locations", l.CreateLocation)
	g.PUT("/locations/:id", l.UpdateLocation)
	g.DELETE("/locations/:id", l.DeleteLocation, middleware.RequireRole(middleware.RoleAdmin))
}

// RegisterRatings registers rating submission. Any authenticated role
// may rate a location; the identity middleware supplies the author id
// that is stored with the rating.
func RegisterRatings(e *echo.Echo, r *handler.RatingHandler) {
	g := e.Group(
		"/v1",
		middleware.GatewayIdentity(),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleModerator, middleware.RoleUser),
	)
	g.POST("/locations/:id/ratings", r.CreateRating)
}
