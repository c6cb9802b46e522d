package middleware // middleware provides shared request processing for gateway handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/auth"
)

// AccessVerifier is the slice of the token authority this middleware needs.
// *auth.Authority satisfies it.
type AccessVerifier interface {
	VerifyAccess(token string) (auth.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and email into the request context.
// Verification is signature + expiry only; revocation state is not
// consulted for access tokens. Handlers read the values via
// `c.Get("user_id")` and `c.Get("email")`.
func JWTAuth(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := v.VerifyAccess(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", claims.Subject)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}
