package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/repository"
)

// LeaderboardHandler serves the public XP ranking.
type LeaderboardHandler struct {
	Users *repository.UserRepo
}

func NewLeaderboardHandler(users *repository.UserRepo) *LeaderboardHandler {
	return &LeaderboardHandler{Users: users}
}

func (h *LeaderboardHandler) Top(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Users.TopByXP(ctx, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}
