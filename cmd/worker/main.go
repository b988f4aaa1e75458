package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/stellarcanvas/internal/adapters/gazetteerfile"
	natsadapter "github.com/samirrijal/stellarcanvas/internal/adapters/nats"
	"github.com/samirrijal/stellarcanvas/internal/adapters/postgres"
	"github.com/samirrijal/stellarcanvas/internal/pkg/config"
	"github.com/samirrijal/stellarcanvas/internal/pkg/logging"
	"github.com/samirrijal/stellarcanvas/internal/workflows"
)

func main() {
	cfg, err := config.Load("stellar-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	acts := &workflows.ImportActivities{
		Reader:   gazetteerfile.NewReader(),
		Features: postgres.NewFeatureRepo(db),
	}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, imports will not be announced", "error", err)
		} else {
			defer pub.Close()
			acts.Publisher = pub
		}
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.GazetteerImportWorkflow)
	w.RegisterActivity(acts)

	slog.Info("gazetteer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
