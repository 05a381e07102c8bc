package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/pkg/pmbackend"
)

// Routes every persisted sample batch to stdout through the callback
// archive, alongside the primary store.
func main() {
	cfg, err := pmbackend.LoadConfig("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Archive.Enabled = false

	callback := func(batch []*pmbackend.TelemetrySample) error {
		for _, s := range batch {
			fmt.Printf("%s machine=%s value=%.2f status=%s\n",
				s.Timestamp.Format(time.RFC3339Nano),
				s.MachineID,
				s.Value,
				s.Status,
			)
		}
		return nil
	}

	rt, err := pmbackend.NewRuntime(cfg,
		pmbackend.WithArchive(pmbackend.NewCallbackArchive("stdout", callback)))
	if err != nil {
		log.Fatalf("init runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime exited: %v", err)
	}
}
