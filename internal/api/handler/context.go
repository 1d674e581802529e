package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/pulseapp/pulse-survey/internal/api/middleware"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. Its
// absence means the route was wired without Auth, which is reported as 401
// rather than trusted.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}
