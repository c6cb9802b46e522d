package realtime

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/citypulse/server/internal/auth"
	"github.com/citypulse/server/internal/limiter"
)

// Reasons sent to a client whose handshake is refused.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonRateLimited  = "rate_limited"
	ReasonRateFailed   = "rate_failed"
)

// Rejection terminates a handshake with an HTTP status and a reason string.
type Rejection struct {
	Status int
	Reason string
}

// Session is the per-connection state filled in during admission.
type Session struct {
	Subject string
}

// Check is one connection-admission predicate. Checks run in declaration
// order; the first rejection stops the chain and the connection never
// completes its handshake.
type Check func(ctx context.Context, r *http.Request, s *Session) *Rejection

// TokenVerifier is the slice of the token authority the bridge needs.
// *auth.Authority satisfies it.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.Claims, error)
}

// RateCheck counts the connection attempt against the origin's current
// minute window. A limiter store failure rejects with rate_failed rather
// than admitting unchecked traffic.
func RateCheck(l *limiter.Limiter) Check {
	return func(ctx context.Context, r *http.Request, _ *Session) *Rejection {
		ok, err := l.Allow(ctx, clientOrigin(r))
		if err != nil {
			return &Rejection{Status: http.StatusServiceUnavailable, Reason: ReasonRateFailed}
		}
		if !ok {
			return &Rejection{Status: http.StatusTooManyRequests, Reason: ReasonRateLimited}
		}
		return nil
	}
}

// AuthCheck extracts the bearer token from the handshake and verifies it.
// On success the subject id is attached to the session.
func AuthCheck(v TokenVerifier) Check {
	return func(_ context.Context, r *http.Request, s *Session) *Rejection {
		token := bearerToken(r)
		if token == "" {
			return &Rejection{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized}
		}
		claims, err := v.VerifyAccess(token)
		if err != nil {
			return &Rejection{Status: http.StatusUnauthorized, Reason: ReasonUnauthorized}
		}
		s.Subject = claims.Subject
		return nil
	}
}

// clientOrigin derives the client origin from forwarded-address headers,
// falling back to the raw socket address.
func clientOrigin(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// bearerToken reads the handshake token from the `token` query parameter or
// the Authorization header.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return strings.TrimSpace(strings.TrimPrefix(t, "Bearer "))
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
