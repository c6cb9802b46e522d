package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/auth"
	"github.com/citypulse/server/internal/config"
	"github.com/citypulse/server/internal/repository"
	"github.com/citypulse/server/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Auth  *auth.Authority
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, authority *auth.Authority) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Auth: authority}
}

// subjectString renders a numeric user ID the way token claims carry it.
func subjectString(id uint64) string { return strconv.FormatUint(id, 10) }

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPart struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
type authResp struct {
	User   userPart       `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register: create user and return a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password (min 6 chars) required"})
	}
	if len(req.DisplayName) < 2 || len(req.DisplayName) > 40 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "displayName must be 2-40 chars"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.DisplayName, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	pair, err := h.Auth.Issue(ctx, subjectString(uid), req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:   userPart{ID: subjectString(uid), Email: req.Email, DisplayName: req.DisplayName},
		Tokens: pair,
	})
}

// Login: verify credentials and return a fresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := h.Auth.Issue(ctx, subjectString(u.ID), u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: subjectString(u.ID), Email: u.Email, DisplayName: u.DisplayName},
		Tokens: pair,
	})
}

// Refresh: rotate the refresh token. Each refresh token is single-use;
// redeeming it twice (or after logout) yields 401 revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Rotate(ctx, strings.TrimSpace(req.RefreshToken))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
	case errors.Is(err, auth.ErrRevoked):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "revoked"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tokens": pair})
}

// Logout: best-effort revocation. Always succeeds from the client's
// perspective, even when the token was already invalid.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		h.Auth.Revoke(ctx, token)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"email":   c.Get("email"),
	})
}
