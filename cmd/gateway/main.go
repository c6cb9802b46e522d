package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/server/internal/auth"
	"github.com/citypulse/server/internal/config"
	"github.com/citypulse/server/internal/database"
	"github.com/citypulse/server/internal/handler"
	"github.com/citypulse/server/internal/limiter"
	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/repository"
	"github.com/citypulse/server/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// Refresh rotation and rate limiting both live in Redis; the
		// gateway cannot degrade gracefully without it.
		log.Fatal("redis connect failed")
	}
	defer rdb.Close()

	broker, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("broker connect failed: %v", err)
	}
	defer broker.Close()

	authority := auth.NewAuthority(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		auth.NewRedisRevocations(rdb),
	)

	users := repository.NewUserRepo(db)
	quests := repository.NewQuestRepo(db)
	progress := repository.NewProgressRepo(db)

	ah := handler.NewAuthHandler(cfg, users, authority)
	qh := handler.NewQuestHandler(quests, progress, broker)
	lh := handler.NewLeaderboardHandler(users)

	rl := limiter.New(limiter.NewRedisCounter(rdb), "httprate", cfg.ReqRateLimit, time.Minute)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, ah, qh, lh, authority, rl)

	log.Printf("gateway listening on :%s (env=%s)", cfg.HTTPPort, cfg.Env)
	e.Logger.Fatal(e.Start(":" + cfg.HTTPPort))
}
