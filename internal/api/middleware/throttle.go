package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pulseapp/pulse-survey/internal/api/metrics"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

// LoginThrottle blocks a client IP after repeated failed logins.
// A limiter outage fails open: the attempt proceeds and the error is logged.
func LoginThrottle(limiter ports.LoginLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := c.RealIP()

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("ip", key).Msg("login limiter unavailable")
			} else if !allowed {
				metrics.LoginsTotal.WithLabelValues("throttled").Inc()
				return domain.ErrTooManyAttempts
			}

			err = next(c)
			switch {
			case err == nil:
				if rerr := limiter.Reset(ctx, key); rerr != nil {
					log.Warn().Err(rerr).Str("ip", key).Msg("login limiter reset failed")
				}
			case errors.Is(err, domain.ErrInvalidCredentials):
				if rerr := limiter.RecordFailure(ctx, key); rerr != nil {
					log.Warn().Err(rerr).Str("ip", key).Msg("login limiter record failed")
				}
			}
			return err
		}
	}
}
