package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// RequireRole gates a route on the caller's forwarded role. It expects
// GatewayIdentity to have stored the role in the context; anything
// outside the allowed set, including an absent role, gets 403. Routes
// that also need the caller's id for attribution read "user_id"
// themselves.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !slices.Contains(roles, role) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
