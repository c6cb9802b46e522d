package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/citypulse/server/internal/config"
	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/worker"
)

func main() {
	cfg := config.Load()

	broker, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("broker connect failed: %v", err)
	}
	defer broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := worker.NewSimTicker(broker, cfg.GridWidth, cfg.GridHeight, cfg.TickInterval)
	log.Printf("sim engine ticking every %s on a %dx%d grid", cfg.TickInterval, cfg.GridWidth, cfg.GridHeight)
	if err := ticker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("sim engine stopped: %v", err)
	}
}
