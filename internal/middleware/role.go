package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // middleware chaining and context
)

// Roles accepted by the registry API.
const (
	RoleSystemAdmin = "SYSTEM_ADMIN"
	RoleLabManager  = "LAB_MANAGER"
)

// RequireRole aborts with 403 unless the role stored by JWTAuth is one of
// roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles)) // set for constant-time lookups
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(RoleKey).(string) // stored by JWTAuth
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
			}
			return next(c)
		}
	}
}
