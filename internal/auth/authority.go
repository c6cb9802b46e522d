// Package auth implements the token authority: it issues, rotates and
// revokes signed bearer tokens and owns the revocation state backing them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken means the token failed signature or expiry checks.
	// The client must authenticate from scratch.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevoked means the refresh token was already consumed or logged
	// out. A refresh token may be redeemed exactly once.
	ErrRevoked = errors.New("refresh token revoked")
)

// Claims are the application claims embedded in both tokens of a pair.
// Access and refresh tokens from the same issuance share a TokenID (jti).
type Claims struct {
	Subject string
	Email   string
	TokenID string
}

// TokenPair is one issuance: a short-lived access token and a long-lived
// refresh token, both signed with the same secret.
type TokenPair struct {
	Access     string    `json:"access"`
	AccessExp  time.Time `json:"accessExpires"`
	Refresh    string    `json:"refresh"`
	RefreshExp time.Time `json:"refreshExpires"`
}

// Authority issues HS256 token pairs and tracks outstanding refresh tokens
// in a shared revocation store. Every outstanding refresh token has exactly
// one store entry keyed by jti; once that entry is gone the token is dead
// regardless of its signature and expiry.
type Authority struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Store      RevocationStore
}

func NewAuthority(secret string, accessTTL, refreshTTL time.Duration, store RevocationStore) *Authority {
	return &Authority{Secret: secret, AccessTTL: accessTTL, RefreshTTL: refreshTTL, Store: store}
}

// Issue generates a fresh token-id, signs an access/refresh pair for the
// subject and records the revocation entry with a TTL equal to the refresh
// expiry. A store write failure is returned as-is; the caller cannot use a
// pair whose refresh token was never registered.
func (a *Authority) Issue(ctx context.Context, subject, email string) (TokenPair, error) {
	jti := uuid.NewString()

	access, accessExp, err := a.sign(subject, email, jti, a.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := a.sign(subject, email, jti, a.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := a.Store.Set(ctx, jti, subject, a.RefreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("store revocation entry: %w", err)
	}
	return TokenPair{Access: access, AccessExp: accessExp, Refresh: refresh, RefreshExp: refreshExp}, nil
}

// Rotate redeems a refresh token for a new pair. Each refresh token is
// single-use: the first caller deletes the revocation entry and reissues;
// a concurrent or repeated rotation finds the entry gone and gets
// ErrRevoked. The old entry is either fully replaced or left untouched.
func (a *Authority) Rotate(ctx context.Context, oldRefresh string) (TokenPair, error) {
	claims, err := a.verify(oldRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	if _, err := a.Store.Get(ctx, claims.TokenID); err != nil {
		if errors.Is(err, ErrNoEntry) {
			return TokenPair{}, ErrRevoked
		}
		return TokenPair{}, fmt.Errorf("revocation lookup: %w", err)
	}
	deleted, err := a.Store.Del(ctx, claims.TokenID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("revocation delete: %w", err)
	}
	if !deleted {
		// Lost the race against another rotation or a logout.
		return TokenPair{}, ErrRevoked
	}
	return a.Issue(ctx, claims.Subject, claims.Email)
}

// Revoke is a best-effort verify-then-delete of the token's revocation
// entry. Logout must always succeed from the client's perspective, so an
// invalid token or a store failure is swallowed.
func (a *Authority) Revoke(ctx context.Context, refresh string) {
	claims, err := a.verify(refresh)
	if err != nil {
		return
	}
	_, _ = a.Store.Del(ctx, claims.TokenID)
}

// VerifyAccess validates an access token's signature and expiry. It is a
// pure check and deliberately does not consult the revocation store: a
// compromised access token stays valid until natural expiry, bounding the
// blast radius to the access TTL.
func (a *Authority) VerifyAccess(token string) (Claims, error) {
	return a.verify(token)
}

func (a *Authority) sign(subject, email, jti string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"jti":   jti,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(a.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (a *Authority) verify(token string) (Claims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(a.Secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	jti, _ := mc["jti"].(string)
	if sub == "" || jti == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: sub, Email: email, TokenID: jti}, nil
}
