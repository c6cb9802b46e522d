package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/citypulse/server/internal/config"
	"github.com/citypulse/server/internal/database"
	"github.com/citypulse/server/internal/queue"
	"github.com/citypulse/server/internal/repository"
	"github.com/citypulse/server/internal/worker"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	broker, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("broker connect failed: %v", err)
	}
	defer broker.Close()

	if err := worker.NewQuestWorker(broker, repository.NewQuestRepo(db)).Start(); err != nil {
		log.Fatalf("quest worker subscribe failed: %v", err)
	}
	log.Print("quest generator synthesizing quests from world events")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
