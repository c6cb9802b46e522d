package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/limiter"
)

// RateLimit counts each request against the caller's per-minute window.
// Like the realtime admission chain, a broken counter store rejects with
// rate_failed instead of admitting unchecked traffic.
func RateLimit(l *limiter.Limiter) echo.MiddlewareFunc {
	if l == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.RealIP()
			if origin == "" {
				origin = "unknown"
			}
			ok, err := l.Allow(c.Request().Context(), origin)
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "rate_failed"})
			}
			if !ok {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate_limited"})
			}
			return next(c)
		}
	}
}
