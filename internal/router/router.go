package router

import (
	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/handler"
	"github.com/citypulse/server/internal/limiter"
	"github.com/citypulse/server/internal/middleware"
)

// RegisterRoutes wires the always-on endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the versioned API. The rate limiter runs before
// everything else so abusive callers never reach auth or the database.
func RegisterAPI(
	e *echo.Echo,
	ah *handler.AuthHandler,
	qh *handler.QuestHandler,
	lh *handler.LeaderboardHandler,
	verifier middleware.AccessVerifier,
	rl *limiter.Limiter,
) {
	// Scoped to /v1 so health probes are never rate limited.
	v1 := e.Group("/v1", middleware.RateLimit(rl))

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", ah.Register)
	authGroup.POST("/login", ah.Login)
	authGroup.POST("/refresh", ah.Refresh)
	authGroup.POST("/logout", ah.Logout)

	v1.GET("/leaderboard", lh.Top)

	protected := v1.Group("", middleware.JWTAuth(verifier))
	protected.GET("/me", ah.Me)
	protected.GET("/quests", qh.List)
	protected.POST("/quests/:id/accept", qh.Accept)
	protected.POST("/quests/:id/complete", qh.Complete)
}
