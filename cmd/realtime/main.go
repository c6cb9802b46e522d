package main

import (
	"log"
	"net/http"
	"time"

	"github.com/citypulse/server/internal/auth"
	"github.com/citypulse/server/internal/config"
	"github.com/citypulse/server/internal/limiter"
	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/realtime"
)

func main() {
	cfg := config.Load()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// Connection admission counts live in Redis and admission is
		// fail-closed, so starting without it would reject everyone.
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

	hub := realtime.NewHub()
	if err := realtime.StartBridge(broker, hub); err != nil {
		log.Fatalf("bridge subscribe failed: %v", err)
	}

	rl := limiter.New(limiter.NewRedisCounter(rdb), "wsrate", cfg.ConnRateLimit, time.Minute)
	srv := realtime.NewServer(hub, realtime.RateCheck(rl), realtime.AuthCheck(authority))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("realtime bridge listening on :%s (env=%s)", cfg.RealtimePort, cfg.Env)
	log.Fatal(http.ListenAndServe(":"+cfg.RealtimePort, mux))
}
