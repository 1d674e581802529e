package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pulseapp/pulse-survey/internal/api/metrics"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

// IdentityKey is the echo.Context key holding the authenticated domain.Identity.
const IdentityKey = "identity"

// Auth validates the bearer token and injects the decoded identity into
// context. Missing, malformed, expired or incomplete tokens all yield 401.
func Auth(tokens *token.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthenticated("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthenticated("invalid authorization header")
			}

			id, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthenticated("invalid token")
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by Auth, if any.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(domain.Identity)
	return id, ok && id.UserID != ""
}

func unauthenticated(msg string) error {
	metrics.AuthzDenialsTotal.WithLabelValues("unauthenticated").Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(domain.ErrUnauthorized)
}
