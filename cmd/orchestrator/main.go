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

	if err := worker.NewOrchestrator(broker).Start(); err != nil {
		log.Fatalf("orchestrator subscribe failed: %v", err)
	}
	log.Print("orchestrator watching sim ticks for hotspots")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
