package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	pmbackend "github.com/Raufnarejo505/AI-Predictive-Maintaince"
)

func main() {
	cfg, err := pmbackend.LoadConfig("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := pmbackend.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("init runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime exited: %v", err)
	}
}
