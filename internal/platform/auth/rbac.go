package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Known roles.
const (
	RoleOfficer   = "officer"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOfficer, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// RequireRole returns middleware that checks if the caller holds one of the
// specified roles. Roles are disjoint personas, so there is no implicit
// admin override: routes that admit admins list the admin role explicitly.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
