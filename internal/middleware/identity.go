package middleware

// identity.go defines the middleware that consumes the identity the API
// gateway attaches to each request, plus helpers shared across
// middleware files. Authentication itself happens upstream: by the time
// a request reaches this service the gateway has already verified the
// caller and forwards the result as plain headers. This service only
// copies them into the request context and enforces roles.

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Headers populated by the gateway on authenticated traffic.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Role values the gateway may forward. RequireRole compares against
// these, so they are exported for route registration.
const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleUser      = "USER"
)

// GatewayIdentity copies the gateway-verified identity headers into the
// request context under "user_id" (uint64) and "role" (string). Requests
// without a parseable user id stay anonymous; downstream gates decide
// whether anonymous is acceptable for their route.
func GatewayIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := c.Request().Header.Get(HeaderUserID); raw != "" {
				if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
					c.Set("user_id", id)
				}
			}
			if role := c.Request().Header.Get(HeaderUserRole); role != "" {
				c.Set("role", strings.ToUpper(strings.TrimSpace(role)))
			}
			return next(c)
		}
	}
}

// userID returns the authenticated user's id as a string for rate-limit
// bucket keys. It returns "guest" when no identity is present so
// anonymous traffic shares one bucket per strategy dimension.
func userID(c echo.Context) string {
	if id, ok := c.Get("user_id").(uint64); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
