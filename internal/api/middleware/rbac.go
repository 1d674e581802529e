package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pulseapp/pulse-survey/internal/api/metrics"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
// With no roles declared any authenticated caller passes.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return unauthenticated("missing authentication claims")
			}
			if len(allowed) == 0 {
				return next(c)
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.AuthzDenialsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden").SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// EffectiveRoles resolves the roles an operation accepts. A route-level
// declaration replaces the group-level one rather than narrowing it.
func EffectiveRoles(group, route []domain.Role) []domain.Role {
	if len(route) > 0 {
		return route
	}
	return group
}
